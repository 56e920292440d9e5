package cli

import (
	"context"
	"fmt"

	"campus-exam-service/internal/config"
	"campus-exam-service/internal/infra/bundb"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := config.InitLogger(cfg.Log.Level, cfg.Log.Format)
	if cfg.Database.Driver == "memory" {
		return fmt.Errorf("database driver not configured")
	}

	db, err := bundb.Open(ctx, bundb.Driver(cfg.Database.Driver), cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	group, err := bundb.Migrate(ctx, db)
	if err != nil {
		return err
	}
	if group.IsZero() {
		log.Info("no new migrations")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}
