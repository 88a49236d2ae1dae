package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kelvi11/smart-warehouse/pkg/config"
	pgxstore "github.com/Kelvi11/smart-warehouse/pkg/pgx"
	"github.com/Kelvi11/smart-warehouse/pkg/warehouse"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the warehouse tables",
	Long:  `Creates the warehouse schema and tables in PostgreSQL when they do not exist yet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage.Driver != config.StoragePostgres {
			return errors.New("migrate needs storage.driver=postgres")
		}

		ctx := cmd.Context()
		pool, err := pgxstore.Connect(ctx, pgxstore.PoolConfig{
			ConnString:     cfg.Storage.ConnString,
			ConnectTimeout: cfg.Storage.ConnectTimeout,
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := warehouse.Migrate(ctx, pool, cfg.Storage.Schema); err != nil {
			return err
		}
		logger.Info("schema migrated", zap.String("schema", cfg.Storage.Schema))
		return nil
	},
}
