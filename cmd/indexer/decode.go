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
)

// runDecode replays a bounded block range through the full pipeline and
// writes the resulting records as JSONL instead of touching a database.
func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.ToBlock == 0 {
		return fmt.Errorf("--to is required for decode")
	}
	cfg.Store = config.StoreJSONL
	cfg.Cursor = config.CursorNone
	cfg.HTTPAddr = ""
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	runners, err := newRunners(cfg, b, logger)
	if err != nil {
		return err
	}

	logger.Info("decode start",
		zap.String("source", cfg.Source),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.String("out", cfg.Out),
	)

	return runAll(ctx, runners, "", nil, logger)
}
