package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/appledocs-mcp/internal/config"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
	"github.com/Aman-CERP/appledocs-mcp/internal/syncer"
)

func newStatsCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, err := store.OpenReadOnly(cfg.IndexPath(), storeOptions(cfg)...)
			if err != nil {
				return fmt.Errorf("open index (run 'appledocs-mcp sync' first): %w", err)
			}
			defer s.Close()

			stats, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Index: %s\n", cfg.IndexPath())
			fmt.Fprintf(out, "  Documents:       %d\n", stats.DocumentCount)
			fmt.Fprintf(out, "  Sample projects: %d\n", stats.SampleCount)
			fmt.Fprintf(out, "  Frameworks:      %d\n", stats.FrameworkCount)
			fmt.Fprintf(out, "  Schema version:  %d\n", stats.SchemaVersion)

			if verbose {
				counts, err := s.ListFrameworks(cmd.Context())
				if err != nil {
					return err
				}
				names := make([]string, 0, len(counts))
				for name := range counts {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Fprintln(out, "\nPer framework:")
				for _, name := range names {
					fmt.Fprintf(out, "  %-24s %d\n", name, counts[name])
				}
			}

			states := syncer.NewStateStore(cfg.SyncStatePath())
			if states.Exists() {
				if state, err := states.Load(); err == nil {
					fmt.Fprintf(out, "\nSync in progress: phase %s, %.0f%% complete.\n",
						state.Phase, state.Progress(len(syncer.DefaultPhases))*100)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List per-framework document counts")
	return cmd
}
