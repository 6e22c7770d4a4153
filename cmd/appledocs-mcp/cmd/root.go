// Package cmd provides the CLI commands for appledocs-mcp.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/appledocs-mcp/internal/logging"
	"github.com/Aman-CERP/appledocs-mcp/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command. Running it bare starts the MCP
// stdio server, the mode MCP clients invoke.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "appledocs-mcp",
		Short: "Apple developer documentation MCP server",
		Long: `appledocs-mcp serves indexed Apple developer documentation to AI
coding agents over the Model Context Protocol.

Run 'appledocs-mcp sync' once to build the local index, then point your
MCP client at 'appledocs-mcp' with no arguments.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runServe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("appledocs-mcp version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.appledocs-mcp/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	cfg := logging.DefaultConfig()
	cfg.Level = "debug"
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return fmt.Errorf("setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
