package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

func init() {
	for _, c := range []persistence.MigrationCommand{persistence.MigrateUp, persistence.MigrateDown, persistence.MigrateStatus} {
		migrateCmd.AddCommand(newMigrateCmd(c))
	}
}

func newMigrateCmd(command persistence.MigrationCommand) *cobra.Command {
	short := map[persistence.MigrationCommand]string{
		persistence.MigrateUp:     "Apply all pending migrations",
		persistence.MigrateDown:   "Roll back the most recent migration",
		persistence.MigrateStatus: "Print applied and pending migrations",
	}[command]
	return &cobra.Command{
		Use:   string(command),
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(command)
		},
	}
}

func runMigrate(command persistence.MigrationCommand) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required for migrations")
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()
	return persistence.RunMigrations(ctx, pg.PoolHandle(), command, logger)
}
