package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/logger"
	"github.com/aanand-mishra/student-records/internal/storage/migrations"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrateSubcommand(configPath, "up", "Apply all pending migrations", (*migrations.Migrator).Up),
		migrateSubcommand(configPath, "down", "Roll back the most recent migration", (*migrations.Migrator).Down),
		migrateSubcommand(configPath, "status", "Print the state of every migration", (*migrations.Migrator).Status),
	)
	return cmd
}

func migrateSubcommand(configPath *string, use, short string, action func(*migrations.Migrator, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log := logger.Setup(cfg.Env, cfg.Log.Level, cfg.Log.File)

			store, err := openStorage(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			m, err := migratorFor(store, log)
			if err != nil {
				return err
			}
			if m == nil {
				return fmt.Errorf("driver %q has no schema to migrate", cfg.Database.Driver)
			}

			if err := action(m, ctx); err != nil {
				return err
			}
			log.Info().Str("command", use).Str("driver", cfg.Database.Driver).Msg("migrate finished")
			return nil
		},
	}
}
