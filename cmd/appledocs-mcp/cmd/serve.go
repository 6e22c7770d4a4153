package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/appledocs-mcp/internal/config"
	"github.com/Aman-CERP/appledocs-mcp/internal/logging"
	"github.com/Aman-CERP/appledocs-mcp/internal/protocol"
	"github.com/Aman-CERP/appledocs-mcp/internal/store"
	"github.com/Aman-CERP/appledocs-mcp/internal/syncer"
	"github.com/Aman-CERP/appledocs-mcp/internal/tools"
	"github.com/Aman-CERP/appledocs-mcp/pkg/version"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP stdio server (default when run bare)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe starts the stdio server. Nothing may touch stdout before
// this point: stdout is the protocol wire.
func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logCfg := logging.ServeConfig()
	logCfg.Level = cfg.Server.LogLevel
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return err
	}
	defer cleanup()
	slog.SetDefault(logger)

	s, err := store.OpenReadOnly(cfg.IndexPath(), storeOptions(cfg)...)
	if err != nil {
		logger.Error("index_open_failed", slog.String("path", cfg.IndexPath()), slog.String("error", err.Error()))
		return fmt.Errorf("open index %s (run 'appledocs-mcp sync' first): %w", cfg.IndexPath(), err)
	}
	defer s.Close()

	registry, err := buildRegistry(cfg, s, logger)
	if err != nil {
		return err
	}

	srv := protocol.NewServer(
		protocol.ServerInfo{Name: "appledocs-mcp", Version: version.Version},
		registry, os.Stdin, os.Stdout, logger,
	)
	logger.Info("serving", slog.String("index", cfg.IndexPath()))
	return srv.Run(ctx)
}

// storeOptions maps the search section of the config onto store
// tunables, for every command that opens the index.
func storeOptions(cfg *config.Config) []store.Option {
	return []store.Option{
		store.WithSearchLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit),
		store.WithSummaryBudget(cfg.Search.SummaryBudget),
	}
}

func buildRegistry(cfg *config.Config, s *store.Store, logger *slog.Logger) (*protocol.Registry, error) {
	docProvider, err := tools.NewDocProvider(s, cfg.Search.ContentCacheSize)
	if err != nil {
		return nil, err
	}
	states := syncer.NewStateStore(cfg.SyncStatePath())

	registry := protocol.NewRegistry(logger)
	registry.RegisterTools(tools.NewSearchProvider(s))
	registry.RegisterTools(docProvider)
	registry.RegisterTools(tools.NewSampleProvider(s))
	registry.RegisterTools(tools.NewStatusProvider(s, states))
	registry.RegisterResources(tools.NewFrameworkResources(s, logger))
	registry.RegisterPrompts(tools.NewDocPrompts())
	return registry, nil
}
