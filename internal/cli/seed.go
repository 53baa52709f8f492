package cli

import (
	"fmt"

	"github.com/safar/bookstore/internal/cache"
	"github.com/safar/bookstore/internal/database"
	"github.com/safar/bookstore/internal/seed"
	"github.com/spf13/cobra"
)

func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load books from a YAML file into the catalog",
		Long: `Insert every book in a YAML seed file in a single transaction.

When REDIS_URL is set the cached catalog is dropped afterwards.

Example:
  bookstore seed --file data/books.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, logger, err := loadForCommand(rootOpts)
			if err != nil {
				return err
			}

			books, err := seed.LoadFile(path)
			if err != nil {
				return err
			}

			db, err := database.NewConnection(&cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			inserted, err := seed.Insert(ctx, db, books)
			if err != nil {
				return err
			}
			logger.Info("catalog seeded", "file", path, "books", len(inserted))

			client, err := newRedisClient(ctx, cfg.Cache)
			if err != nil {
				logger.Warn("catalog cache not invalidated", "error", err)
				return nil
			}
			if client != nil {
				defer client.Close()
				if err := cache.NewRedisCache(client, cfg.Cache.TTL).Invalidate(ctx); err != nil {
					logger.Warn("catalog cache not invalidated", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "file", "data/books.yaml", "path to the YAML seed file")

	return cmd
}
