package core

import (
	"context"
	"fmt"

	"github.com/complygate/complygate/internal/audit"
	"github.com/complygate/complygate/internal/baseline"
	"github.com/complygate/complygate/internal/engine"
	"github.com/complygate/complygate/internal/git"
	"github.com/complygate/complygate/internal/override"
	"github.com/complygate/complygate/internal/regression"
	"github.com/complygate/complygate/internal/rules"
	"github.com/complygate/complygate/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type (
	Override    = override.Override
	RuleSet     = rules.RuleSet
	ScanResult  = engine.Result
	Classified  = regression.Result
	Violation   = types.Violation
	Observation = types.Observation
)

// Config selects what one gate run operates on. Exactly one of RuleSet or
// RulesPath must be set.
type Config struct {
	Root      string
	RuleSet   *rules.RuleSet
	RulesPath string

	Overrides  []Override
	DefersPath string

	BaselinePath string // "" = default location under Root
	AuditPath    string // "" = default location under Root
	RunRef       string // "" = derived from git HEAD, or a timestamp

	Threads         int
	MaxBytes        int64
	DefaultExcludes bool
	SkipBaseline    bool // scan + overrides only; no classification, no store
}

// Report is the combined structured result of one gate run.
type Report struct {
	Scan           *ScanResult `json:"scan"`
	Classification *Classified `json:"classification,omitempty"`
	RunRef         string      `json:"run_ref"`
	GateFailed     bool        `json:"gate_failed"`
}

// Check runs the full gate. Configuration and store errors come back as
// errors; a failing gate is a normal result with GateFailed set.
func Check(ctx context.Context, cfg Config) (*Report, error) {
	ruleSet := cfg.RuleSet
	if ruleSet == nil {
		if cfg.RulesPath == "" {
			return nil, &rules.ValidationError{Reason: "no rule set supplied"}
		}
		rs, err := rules.LoadFile(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		ruleSet = rs
	}

	var defers []regression.DeferEntry
	if cfg.DefersPath != "" {
		ds, err := regression.LoadDefers(cfg.DefersPath)
		if err != nil {
			return nil, err
		}
		defers = ds
	}

	scanCfg := engine.Config{
		Root:            cfg.Root,
		Threads:         cfg.Threads,
		MaxBytes:        cfg.MaxBytes,
		DefaultExcludes: cfg.DefaultExcludes,
	}
	scan, err := engine.Scan(ctx, scanCfg, ruleSet, cfg.Overrides)
	if err != nil {
		return nil, err
	}

	runRef := cfg.RunRef
	if runRef == "" {
		runRef = git.RunRef(cfg.Root)
	}
	rep := &Report{Scan: scan, RunRef: runRef}

	log := audit.At(cfg.AuditPath)
	if cfg.AuditPath == "" {
		log = audit.New(cfg.Root)
	}
	// Overrides only suppress when their application is on the record.
	if err := log.AppendOverrides(scan.Applied); err != nil {
		return nil, fmt.Errorf("audit overrides: %w", err)
	}

	if cfg.SkipBaseline {
		rep.GateFailed = scan.GateFailed()
		return rep, finishAudit(log, rep)
	}

	storePath := cfg.BaselinePath
	if storePath == "" {
		storePath = baseline.DefaultPath(cfg.Root)
	}
	store, err := baseline.Open(storePath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	fp := ruleSet.Fingerprint()
	if prev := store.RulesetHash(); prev != "" && prev != fp {
		scan.Warnings = append(scan.Warnings, "baseline was recorded under a different rule set; history may not be comparable")
	}

	cls := regression.Classify(scan.Observations, store, defers, runRef)
	store.SetRulesetHash(fp)
	if err := store.Flush(); err != nil {
		return nil, err
	}

	rep.Classification = cls
	rep.GateFailed = scan.GateFailed() || cls.GateFailed()
	return rep, finishAudit(log, rep)
}

func finishAudit(log *audit.Log, rep *Report) error {
	rec := audit.Record{
		Kind:         "run",
		RunRef:       rep.RunRef,
		GateFailed:   rep.GateFailed,
		Violations:   len(rep.Scan.Violations),
		Warnings:     len(rep.Scan.Warnings),
		FilesScanned: rep.Scan.FilesScanned,
	}
	if rep.Classification != nil {
		rec.ClassCounts = rep.Classification.Counts()
		rec.Warnings += len(rep.Classification.Warnings)
	}
	if err := log.Append(rec); err != nil {
		return fmt.Errorf("audit run record: %w", err)
	}
	return nil
}
