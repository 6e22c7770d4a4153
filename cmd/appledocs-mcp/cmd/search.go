package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/appledocs-mcp/internal/availability"
	"github.com/Aman-CERP/appledocs-mcp/internal/config"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		source         string
		framework      string
		language       string
		limit          int
		includeArchive bool
		minVersions    = map[availability.Platform]*string{}
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the local index from the command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, err := store.OpenReadOnly(cfg.IndexPath(), storeOptions(cfg)...)
			if err != nil {
				return fmt.Errorf("open index (run 'appledocs-mcp sync' first): %w", err)
			}
			defer s.Close()

			filters := store.SearchFilters{
				Source:         store.Source(source),
				Framework:      framework,
				Language:       language,
				IncludeArchive: includeArchive,
				Limit:          limit,
			}
			versions := availability.Filter{}
			for platform, v := range minVersions {
				if *v != "" {
					versions[platform] = *v
				}
			}
			if !versions.Empty() {
				filters.Versions = versions
			}

			results, err := s.Search(cmd.Context(), query, filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintf(out, "No results for %q.\n", query)
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%2d. %s", i+1, r.Title)
				if r.Framework != "" {
					fmt.Fprintf(out, " (%s)", r.Framework)
				}
				fmt.Fprintf(out, " [%s]\n    %s\n", r.Source, r.URI)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Restrict to one corpus")
	cmd.Flags().StringVar(&framework, "framework", "", "Restrict to one framework")
	cmd.Flags().StringVar(&language, "language", "", "Restrict by language (swift, objc)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results")
	cmd.Flags().BoolVar(&includeArchive, "include-archive", false, "Include documentation-archive results")
	for _, platform := range availability.Platforms {
		v := new(string)
		minVersions[platform] = v
		cmd.Flags().StringVar(v, fmt.Sprintf("min-%s-version", platform), "",
			fmt.Sprintf("Only APIs available on %s at this version", platform))
	}
	return cmd
}
