package main

import (
	"fmt"

	"github.com/spf13/cobra"

	coreconfig "github.com/m3rciful/ipswbot/core/config"
	"github.com/m3rciful/ipswbot/core/database"
	"github.com/m3rciful/ipswbot/core/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the postgres backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := coreconfig.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Storage.Backend != coreconfig.StorageBackendPostgres {
				return fmt.Errorf("storage.backend is %q; migrations apply to the postgres backend only", cfg.Storage.Backend)
			}
			if err := logger.InitLogger(cfg); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Shutdown()

			return database.RunMigrations(databaseConfig(cfg))
		},
	}
}
