package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "ORA prompt and callback log indexer",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFiles, _ := cmd.Flags().GetStringSlice("env-file")
			return loadEnvFiles(envFiles)
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().StringSlice("env-file", []string{".env.local", ".env"}, "env files to load when present")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Follow the configured subscriptions and persist their records",
		RunE:  runIndexer,
	}
	addSourceFlags(runCmd)
	addStoreFlags(runCmd)
	runCmd.Flags().String("cursor", "store", "cursor backend (store, file, none)")
	runCmd.Flags().String("cursor-dir", "./data/cursors", "directory for file cursors")
	runCmd.Flags().Uint64("from", 0, "start block (inclusive), 0 uses each subscription's start block")
	runCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 follows the chain head")
	runCmd.Flags().String("http-addr", "", "serve /metrics and /healthz on this address")
	root.AddCommand(runCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a bounded block range and print records as JSONL",
		RunE:  runDecode,
	}
	addSourceFlags(decodeCmd)
	decodeCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	decodeCmd.Flags().Uint64("to", 0, "end block (inclusive)")
	decodeCmd.Flags().String("out", "-", "output JSONL path, - for stdout")
	root.AddCommand(decodeCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE:  runMigrate,
	}
	addStoreFlags(migrateCmd)
	root.AddCommand(migrateCmd)

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop all indexed data and recreate the schema",
		RunE:  runReset,
	}
	addStoreFlags(resetCmd)
	resetCmd.Flags().Bool("yes", false, "confirm dropping all tables")
	root.AddCommand(resetCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "hypersync", "log source (hypersync, rpc)")
	cmd.Flags().String("rpc", "https://rpc.ankr.com/eth", "Ethereum RPC URL")
	cmd.Flags().String("timestamp-rpc", "", "RPC URL for block timestamps, defaults to --rpc")
	cmd.Flags().Duration("rpc-timeout", 30*time.Second, "per-call RPC timeout")
	cmd.Flags().String("hypersync-url", "https://eth.hypersync.xyz", "HyperSync endpoint")
	cmd.Flags().String("hypersync-token", "", "HyperSync bearer token")
	cmd.Flags().Uint64("chain-id", 0, "chain id stored with every record")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per eth_getLogs query")
	cmd.Flags().Duration("poll-interval", time.Second, "height poll interval while caught up")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Duration("retry-max-backoff", 30*time.Second, "maximum retry backoff")
	cmd.Flags().Int("timestamp-retries", 3, "retries for block timestamp lookups")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "postgres", "record store (postgres, sqlite, jsonl)")
	cmd.Flags().String("database-url", "", "Postgres URL (falls back to DATABASE_URL)")
	cmd.Flags().String("sqlite-path", "./data/ora.db", "SQLite database file")
	cmd.Flags().String("out", "-", "output path for the jsonl store, - for stdout")
}

// loadEnvFiles loads each existing file without overriding variables that
// are already set.
func loadEnvFiles(paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat env file: %w", err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
