package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roadroute/editor/internal/persist"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending snapshot-mirror migrations to PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()
			if cfg.Database.DSN == "" {
				return errors.New("database.dsn is not set")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			db, err := persist.NewDB(ctx, cfg.Database, log)
			if err != nil {
				return fmt.Errorf("database: %w", err)
			}
			defer db.Close()

			if err := persist.RunMigrations(ctx, db.Pool); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			v, err := persist.MigrationVersion(ctx, db.Pool)
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), fmt.Sprintf("schema at version %d", v))
			return nil
		},
	}
}
