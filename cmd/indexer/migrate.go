package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"oraScope/internal/config"
	"oraScope/internal/storage/postgres"
	"oraScope/internal/storage/sqlite"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadStoreCommand(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	switch cfg.Store {
	case config.StorePostgres:
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
	case config.StoreSQLite:
		// Open applies the schema.
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		if err := store.Close(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store %q has no schema", cfg.Store)
	}

	logger.Info("schema up to date", zap.String("store", cfg.Store))
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadStoreCommand(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return fmt.Errorf("reset drops every indexed record and cursor, pass --yes to confirm")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Store {
	case config.StorePostgres:
		if err := postgres.Reset(cfg.DatabaseURL); err != nil {
			return err
		}
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Reset(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("store %q has no schema", cfg.Store)
	}

	logger.Info("schema reset", zap.String("store", cfg.Store))
	return nil
}

func loadStoreCommand(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}

	if cfg.Store == config.StorePostgres && cfg.DatabaseURL == "" {
		return config.Config{}, nil, fmt.Errorf("database url is required for the postgres store")
	}
	return cfg, logger, nil
}
