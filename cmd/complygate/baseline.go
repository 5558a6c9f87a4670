package complygate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/complygate/complygate/internal/baseline"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Inspect and prune the regression baseline",
	}
	rootCmd.AddCommand(cmd)

	var showPath, showRoot string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print every baseline entry",
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := openStore(showPath, showRoot)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.Len() == 0 {
				fmt.Fprintln(os.Stdout, "Baseline is empty.")
				return nil
			}
			for _, id := range s.IDs() {
				e, _ := s.Get(id)
				fmt.Fprintf(os.Stdout, "%-20s %-5s %s  %s\n", id, e.Status, e.UpdatedAt.Format("2006-01-02T15:04:05Z"), e.RunRef)
			}
			return nil
		},
	}
	show.Flags().StringVar(&showPath, "baseline", "", "baseline store path")
	show.Flags().StringVar(&showRoot, "path", ".", "source tree root (for the default store location)")
	cmd.AddCommand(show)

	var prunePath, pruneRoot, pruneID string
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove one entry from the baseline",
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := openStore(prunePath, pruneRoot)
			if err != nil {
				return err
			}
			defer s.Close()
			if !s.Prune(pruneID) {
				return fmt.Errorf("no baseline entry for %s", pruneID)
			}
			if err := s.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "Pruned", pruneID)
			return nil
		},
	}
	prune.Flags().StringVar(&prunePath, "baseline", "", "baseline store path")
	prune.Flags().StringVar(&pruneRoot, "path", ".", "source tree root (for the default store location)")
	prune.Flags().StringVar(&pruneID, "id", "", "test id to remove")
	_ = prune.MarkFlagRequired("id")
	cmd.AddCommand(prune)
}

func openStore(path, root string) (*baseline.Store, error) {
	if path == "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		path = baseline.DefaultPath(abs)
	}
	return baseline.Open(path)
}
