package complygate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/complygate/complygate/internal/config"
	"github.com/complygate/complygate/internal/override"
	"github.com/complygate/complygate/internal/report"
	"github.com/complygate/complygate/internal/types"
	"github.com/complygate/complygate/pkg/core"
	"github.com/spf13/cobra"
)

var (
	flagPath          string
	flagRules         string
	flagBaseline      string
	flagDefers        string
	flagAudit         string
	flagRunRef        string
	flagOverrides     []string
	flagOverridesFile string
	flagMaxBytes      int64
	flagNoBaseline    bool
	flagNoDefaults    bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the compliance gate against a source tree",
		RunE:  runCheck,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "source tree root")
	cmd.Flags().StringVar(&flagRules, "rules", "", "rule set YAML file")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline store path (default: under the tree root)")
	cmd.Flags().StringVar(&flagDefers, "defer", "", "defer list YAML file")
	cmd.Flags().StringVar(&flagAudit, "audit", "", "audit log path (default: under the tree root)")
	cmd.Flags().StringVar(&flagRunRef, "run-ref", "", "run identifier recorded in the baseline (default: git HEAD)")
	cmd.Flags().StringArrayVar(&flagOverrides, "override", nil, "suppress one rule for this run: RULE=WHO:WHY (repeatable)")
	cmd.Flags().StringVar(&flagOverridesFile, "overrides-file", "", "YAML file of overrides")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	cmd.Flags().BoolVar(&flagNoBaseline, "no-baseline", false, "scan only; skip regression classification and the baseline store")
	cmd.Flags().BoolVar(&flagNoDefaults, "no-default-excludes", false, "do not skip node_modules, vendor, binaries, etc.")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	abs, err := filepath.Abs(flagPath)
	if err != nil {
		return err
	}

	// Load configs: CLI > local > global
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}

	rulesPath := pickString(flagRules, lcfg.Rules, gcfg.Rules)
	if rulesPath == "" {
		return fmt.Errorf("no rule set: pass --rules or set rules: in the config file")
	}

	var overrides []override.Override
	if flagOverridesFile != "" {
		ovs, err := loadOverridesFile(flagOverridesFile)
		if err != nil {
			return err
		}
		overrides = ovs
	}
	for _, s := range flagOverrides {
		o, err := parseOverrideFlag(s)
		if err != nil {
			return err
		}
		overrides = append(overrides, o)
	}

	cfg := core.Config{
		Root:            abs,
		RulesPath:       rulesPath,
		Overrides:       overrides,
		DefersPath:      pickString(flagDefers, lcfg.Defers, gcfg.Defers),
		BaselinePath:    pickString(flagBaseline, lcfg.Baseline, gcfg.Baseline),
		AuditPath:       flagAudit,
		RunRef:          pickString(flagRunRef, lcfg.RunRef, gcfg.RunRef),
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		MaxBytes:        pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		DefaultExcludes: !flagNoDefaults,
		SkipBaseline:    flagNoBaseline,
	}

	rep, err := core.Check(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)
	opts := report.PrintOptions{
		NoColor:      noColor,
		Duration:     rep.Scan.Duration,
		FilesScanned: rep.Scan.FilesScanned,
	}
	switch {
	case flagJSON:
		if err := report.WriteJSON(os.Stdout, rep); err != nil {
			return err
		}
	case flagText:
		report.PrintText(os.Stdout, rep.Scan, rep.Classification, opts)
	default:
		report.PrintTable(os.Stdout, rep.Scan, rep.Classification, opts)
	}

	if rep.GateFailed {
		os.Exit(types.ExitGateFailure)
	}
	return nil
}
