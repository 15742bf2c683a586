package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-progress/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the configured store",
	Long:  "Runs the embedded goose migrations against Postgres, or creates the document table for SQLite.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadConfig()
		if err != nil {
			return err
		}

		switch cfg.Storage.Driver {
		case config.StorePostgres:
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			db, err := repository.OpenPostgres(ctx, cfg.Postgres.Driver, cfg.Postgres.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.RunMigrations(db.DB); err != nil {
				return err
			}
		case config.StoreSQLite:
			s, err := repository.OpenSQLite(cfg.Storage.SQLitePath)
			if err != nil {
				return err
			}
			defer s.Close()
		case config.StoreMemory:
			fmt.Fprintln(cmd.OutOrStdout(), "memory store has no schema, nothing to do")
			return nil
		default:
			return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
		}

		slog.Info("migrations applied", "component", "store", "driver", cfg.Storage.Driver)
		fmt.Fprintf(cmd.OutOrStdout(), "%s schema is up to date\n", cfg.Storage.Driver)
		return nil
	},
}
