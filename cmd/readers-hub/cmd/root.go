// Package cmd provides the CLI commands for the readers hub.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/upb/readers-hub/config"
	"github.com/upb/readers-hub/internal/observability"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "readers-hub",
	Short: "Readers hub API server and admin tools",
	Long: `Readers hub serves the book catalog, posts, comments, follows and
notifications over a JSON API.

Configuration is read from environment variables, optionally seeded from a
.env file in the working directory.

Commands:
  serve       Run the API server
  migrate     Apply the database schema
  users       Assign roles and permissions
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger every command uses
func bootstrap(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}
