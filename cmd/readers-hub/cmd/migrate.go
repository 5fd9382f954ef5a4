package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/readers-hub/repositories/postgres"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long:  `Create the tables if the recorded schema version is missing. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, logger, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := postgres.NewDB(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("migrate finished", zap.Bool("applied", applied))
		if applied {
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "schema already up to date")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
