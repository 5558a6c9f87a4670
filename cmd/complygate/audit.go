package complygate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/complygate/complygate/internal/audit"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the override and run audit trail",
	}
	rootCmd.AddCommand(cmd)

	var histPath, histRoot string
	var histLimit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Print audit records, newest first",
		RunE: func(_ *cobra.Command, _ []string) error {
			log := audit.At(histPath)
			if histPath == "" {
				abs, err := filepath.Abs(histRoot)
				if err != nil {
					return err
				}
				log = audit.New(abs)
			}
			records, err := log.History()
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(os.Stdout, "Audit trail is empty.")
					return nil
				}
				return err
			}
			if histLimit > 0 && len(records) > histLimit {
				records = records[:histLimit]
			}
			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			for _, r := range records {
				ts := r.Timestamp.Format("2006-01-02T15:04:05Z")
				switch r.Kind {
				case "override":
					fmt.Fprintf(os.Stdout, "%s  override  %s by %s: %s (%d suppressed)\n",
						ts, r.RuleID, r.RequestedBy, r.Justification, r.Suppressed)
				case "run":
					verdict := "pass"
					if r.GateFailed {
						verdict = "FAIL"
					}
					fmt.Fprintf(os.Stdout, "%s  run       %s %s: %d violations, %d files\n",
						ts, r.RunRef, verdict, r.Violations, r.FilesScanned)
				default:
					fmt.Fprintf(os.Stdout, "%s  %s\n", ts, r.Kind)
				}
			}
			return nil
		},
	}
	history.Flags().StringVar(&histPath, "audit", "", "audit trail path")
	history.Flags().StringVar(&histRoot, "path", ".", "source tree root (for the default trail location)")
	history.Flags().IntVar(&histLimit, "limit", 0, "show at most N records (0 = all)")
	cmd.AddCommand(history)
}
