package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vdex/vdex/internal/config"
	"github.com/vdex/vdex/internal/logging"
	"github.com/vdex/vdex/internal/repository/postgres"
)

// NewMigrateCmd constructs the `vdex migrate` command, which applies every
// pending goose migration against DATABASE_URL and exits.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			cfg := config.FromEnv()
			if cfg.Database.URL == "" {
				return fmt.Errorf("migrate: DATABASE_URL is not set")
			}

			pool, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("migrate: failed to connect to database: %w", err)
			}
			defer pool.Close()

			if err := postgres.Migrate(ctx, pool, cfg.Database.MigrationsPath); err != nil {
				return fmt.Errorf("migrate: failed to apply migrations: %w", err)
			}

			log.Info("migrate: schema is up to date")
			return nil
		},
	}
}
