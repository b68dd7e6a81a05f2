package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"oraScope/internal/config"
	"oraScope/internal/indexer"
	"oraScope/internal/server"
)

func runIndexer(cmd *cobra.Command, _ []string) error {
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

	logger.Info("indexer start",
		zap.String("source", cfg.Source),
		zap.String("store", cfg.Store),
		zap.String("cursor", cfg.Cursor),
		zap.Uint64("chain_id", cfg.ChainID),
		zap.Int("subscriptions", len(runners)),
		zap.Uint64("to", cfg.ToBlock),
	)

	return runAll(ctx, runners, cfg.HTTPAddr, b.checkers, logger)
}

// runAll runs every runner concurrently. The HTTP server, when enabled,
// stops once all runners have returned.
func runAll(ctx context.Context, runners []*indexer.Runner, httpAddr string, checkers map[string]server.Checker, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	serveCtx, stopServe := context.WithCancel(gctx)
	defer stopServe()
	if httpAddr != "" {
		srv := server.New(logger, checkers)
		g.Go(func() error {
			if err := srv.Serve(serveCtx, httpAddr); err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	runnersGroup, runCtx := errgroup.WithContext(gctx)
	for _, runner := range runners {
		runner := runner
		runnersGroup.Go(func() error {
			return runner.Run(runCtx)
		})
	}
	g.Go(func() error {
		defer stopServe()
		return runnersGroup.Wait()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("indexer stopped")
	return nil
}
