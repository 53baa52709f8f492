package cli

import (
	"fmt"
	"log/slog"

	"github.com/safar/bookstore/internal/config"
	"github.com/safar/bookstore/internal/database"
	"github.com/spf13/cobra"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
		Long: `Manage the database schema with the migrations in MIGRATIONS_PATH.

Example:
  bookstore migrate up
  bookstore migrate down
  bookstore migrate version`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadForCommand(rootOpts)
			if err != nil {
				return err
			}
			return migrateUp(cfg, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadForCommand(rootOpts)
			if err != nil {
				return err
			}
			return withMigrator(cfg, func(mg *database.Migrator) error {
				changed, err := mg.Down()
				if err != nil {
					return err
				}
				logger.Info("migrate down finished", "changed", changed)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadForCommand(rootOpts)
			if err != nil {
				return err
			}
			return withMigrator(cfg, func(mg *database.Migrator) error {
				version, dirty, ok, err := mg.Version()
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

func loadForCommand(rootOpts *RootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, newLogger(cfg, rootOpts), nil
}

func migrateUp(cfg *config.Config, logger *slog.Logger) error {
	return withMigrator(cfg, func(mg *database.Migrator) error {
		changed, err := mg.Up()
		if err != nil {
			return err
		}
		logger.Info("migrate up finished", "changed", changed)
		return nil
	})
}

// withMigrator runs fn against a pool of its own; closing the migrator closes
// that pool.
func withMigrator(cfg *config.Config, fn func(*database.Migrator) error) error {
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	mg, err := database.NewMigrator(db, cfg.Database.MigrationsPath)
	if err != nil {
		db.Close()
		return err
	}

	runErr := fn(mg)
	if err := mg.Close(); err != nil && runErr == nil {
		return fmt.Errorf("close migrator: %w", err)
	}
	return runErr
}
