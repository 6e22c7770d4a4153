package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/appledocs-mcp/internal/config"
	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
	"github.com/Aman-CERP/appledocs-mcp/internal/syncer"
)

func newSyncCmd() *cobra.Command {
	var fresh bool
	var concurrency int
	var phases []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Build or resume the local documentation index",
		Long: `Sync fetches the remote documentation corpus and indexes it locally.
Progress is checkpointed after every file; an interrupted sync resumes
where it stopped. Use --fresh to discard the checkpoint and start over.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, fresh, concurrency, phases)
		},
	}

	cmd.Flags().BoolVar(&fresh, "fresh", false, "Discard any checkpoint and sync from scratch")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel fetches per framework (default from config)")
	cmd.Flags().StringSliceVar(&phases, "phases", nil, "Phases to run (docs, evolution, samples)")
	return cmd
}

func runSync(cmd *cobra.Command, fresh bool, concurrency int, phaseNames []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Sync.Concurrency
	}

	phases, err := parsePhases(phaseNames)
	if err != nil {
		return err
	}

	states := syncer.NewStateStore(cfg.SyncStatePath())
	if fresh {
		if err := states.Delete(); err != nil {
			return err
		}
	}

	s, err := store.Open(cfg.IndexPath(), storeOptions(cfg)...)
	if err != nil {
		return err
	}
	defer s.Close()

	fetcher := syncer.NewHTTPFetcher(syncer.HTTPFetcherConfig{
		BaseURL:           cfg.Sync.BaseURL,
		Timeout:           cfg.Sync.FetchTimeout,
		RequestsPerSecond: cfg.Sync.RequestsPerSecond,
	})
	retry := apperrors.DefaultRetryConfig()
	retry.MaxRetries = cfg.Sync.MaxRetries

	engine := syncer.NewEngine(
		syncer.NewAppleSource(fetcher),
		syncer.AppleProducer{},
		s,
		states,
		syncer.Config{Phases: phases, Concurrency: concurrency, Retry: retry},
	)

	// A second interrupt kills the process; the first one lets the
	// engine checkpoint and stop cleanly.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	stats, err := engine.Run(ctx)
	out := cmd.OutOrStdout()
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintf(out, "Sync interrupted after %s. Run 'appledocs-mcp sync' again to resume.\n",
				time.Since(started).Round(time.Second))
			return nil
		}
		return err
	}

	if stats.Resumed {
		fmt.Fprintln(out, "Resumed from checkpoint.")
	}
	fmt.Fprintf(out, "Sync complete: %d files indexed, %d failed, %d frameworks, %s.\n",
		stats.FilesIndexed, stats.FilesFailed, stats.FrameworksCompleted,
		stats.Duration.Round(time.Second))
	return nil
}

func parsePhases(names []string) ([]syncer.Phase, error) {
	if len(names) == 0 {
		return syncer.DefaultPhases, nil
	}
	valid := map[string]syncer.Phase{
		string(syncer.PhaseDocs):      syncer.PhaseDocs,
		string(syncer.PhaseEvolution): syncer.PhaseEvolution,
		string(syncer.PhaseSamples):   syncer.PhaseSamples,
	}
	phases := make([]syncer.Phase, 0, len(names))
	for _, name := range names {
		p, ok := valid[name]
		if !ok {
			return nil, fmt.Errorf("unknown phase %q (valid: docs, evolution, samples)", name)
		}
		phases = append(phases, p)
	}
	return phases, nil
}
