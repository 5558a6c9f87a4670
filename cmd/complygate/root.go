package complygate

import (
	"fmt"
	"os"

	"github.com/complygate/complygate/internal/types"
	"github.com/spf13/cobra"
)

var (
	flagJSON    bool
	flagText    bool
	flagThreads int
	flagNoColor bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the Complygate CLI.
var rootCmd = &cobra.Command{
	Use:           "complygate",
	Short:         "Compliance and regression gate for source trees",
	Long:          "Complygate evaluates declarative compliance rules against a source tree, tracks pass/fail history across runs, and fails the gate on new or regressed violations.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the Complygate CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(types.ExitConfigError)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagText, "text", false, "plain text output instead of a table")
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.Version = version
}
