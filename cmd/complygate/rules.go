package complygate

import (
	"fmt"
	"os"

	"github.com/complygate/complygate/internal/rules"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule sets",
	}
	rootCmd.AddCommand(cmd)

	var lintPath string
	lint := &cobra.Command{
		Use:   "lint",
		Short: "Validate a rule set without scanning anything",
		RunE: func(_ *cobra.Command, _ []string) error {
			rs, err := rules.LoadFile(lintPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "OK: %d rules, fingerprint %s\n", len(rs.Rules), rs.Fingerprint())
			return nil
		},
	}
	lint.Flags().StringVar(&lintPath, "rules", "", "rule set YAML file")
	_ = lint.MarkFlagRequired("rules")
	cmd.AddCommand(lint)

	var listPath string
	list := &cobra.Command{
		Use:   "list",
		Short: "List rule ids, severities and scopes",
		RunE: func(_ *cobra.Command, _ []string) error {
			rs, err := rules.LoadFile(listPath)
			if err != nil {
				return err
			}
			for _, r := range rs.Rules {
				fmt.Fprintf(os.Stdout, "%-15s %-15s forbidden=%d required=%d scope=%s\n",
					r.ID, r.Severity, len(r.Forbidden), len(r.Required), r.Scope)
			}
			return nil
		},
	}
	list.Flags().StringVar(&listPath, "rules", "", "rule set YAML file")
	_ = list.MarkFlagRequired("rules")
	cmd.AddCommand(list)
}
