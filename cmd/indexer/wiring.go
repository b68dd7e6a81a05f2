package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"oraScope/internal/chain"
	"oraScope/internal/config"
	"oraScope/internal/indexer"
	"oraScope/internal/server"
	"oraScope/internal/source"
	"oraScope/internal/source/hypersync"
	"oraScope/internal/storage"
	"oraScope/internal/storage/postgres"
	"oraScope/internal/storage/sqlite"
)

// backends are the shared collaborators of every subscription runner.
type backends struct {
	source     source.LogSource
	timestamps indexer.TimestampResolver
	records    storage.RecordStore
	cursors    storage.CursorStore
	checkers   map[string]server.Checker
	closers    []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openChain(ctx context.Context, cfg config.Config, b *backends, logger *zap.Logger) (*chain.Client, error) {
	rpcClient, err := chain.NewClient(ctx, cfg.RPCURL, cfg.RPCTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	b.closers = append(b.closers, rpcClient.Close)
	b.checkers["rpc"] = rpcClient

	// the configured chain id is a label and may differ from the node's
	if id, err := rpcClient.GetChainID(ctx); err != nil {
		logger.Warn("get chain id failed", zap.Error(err))
	} else {
		logger.Info("connected rpc", zap.String("rpc_chain_id", id.String()), zap.Uint64("chain_id", cfg.ChainID))
	}

	b.timestamps = rpcClient
	if cfg.TimestampRPCURL != "" && cfg.TimestampRPCURL != cfg.RPCURL {
		tsClient, err := chain.NewClient(ctx, cfg.TimestampRPCURL, cfg.RPCTimeout)
		if err != nil {
			return nil, fmt.Errorf("connect timestamp rpc: %w", err)
		}
		b.closers = append(b.closers, tsClient.Close)
		b.checkers["timestamp_rpc"] = tsClient
		b.timestamps = tsClient
	}
	return rpcClient, nil
}

func openSource(cfg config.Config, rpcClient *chain.Client, b *backends) error {
	switch cfg.Source {
	case config.SourceRPC:
		src, err := source.NewRPCSource(rpcClient, cfg.BatchSize)
		if err != nil {
			return err
		}
		b.source = src
	case config.SourceHypersync:
		client := hypersync.NewClient(cfg.HypersyncURL, cfg.HypersyncToken, cfg.RPCTimeout)
		b.source = client
		b.checkers["hypersync"] = client
	default:
		return fmt.Errorf("unknown source %q", cfg.Source)
	}
	return nil
}

// openStore opens the configured record store. The returned cursor store
// is nil when the backend cannot hold cursors.
func openStore(ctx context.Context, cfg config.Config) (storage.RecordStore, storage.CursorStore, func() error, error) {
	switch cfg.Store {
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, store.Close, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, store, store.Close, nil
	case config.StoreJSONL:
		store, err := storage.NewJSONLStore(cfg.Out)
		if err != nil {
			return nil, nil, nil, err
		}
		return store, nil, store.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openBackends(ctx context.Context, cfg config.Config, logger *zap.Logger) (*backends, error) {
	b := &backends{checkers: make(map[string]server.Checker)}

	rpcClient, err := openChain(ctx, cfg, b, logger)
	if err != nil {
		b.Close()
		return nil, err
	}
	if err := openSource(cfg, rpcClient, b); err != nil {
		b.Close()
		return nil, err
	}

	records, storeCursors, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	b.records = records
	b.closers = append(b.closers, func() {
		if err := closeStore(); err != nil {
			logger.Warn("close store failed", zap.Error(err))
		}
	})
	if pinger, ok := records.(server.Checker); ok {
		b.checkers["store"] = pinger
	}

	switch cfg.Cursor {
	case config.CursorStore:
		if storeCursors == nil {
			b.Close()
			return nil, fmt.Errorf("the %s store cannot hold cursors", cfg.Store)
		}
		b.cursors = storeCursors
	case config.CursorFile:
		b.cursors = storage.NewFileCursorStore(cfg.CursorDir)
	case config.CursorNone:
	default:
		b.Close()
		return nil, fmt.Errorf("unknown cursor backend %q", cfg.Cursor)
	}

	return b, nil
}

// newRunners builds one runner per configured subscription.
func newRunners(cfg config.Config, b *backends, logger *zap.Logger) ([]*indexer.Runner, error) {
	queryRetry := indexer.RetryPolicy{
		MaxRetries: -1,
		BaseDelay:  cfg.RetryBackoff,
		MaxDelay:   cfg.RetryMaxBackoff,
	}
	timestampRetry := indexer.RetryPolicy{
		MaxRetries: cfg.TimestampRetry,
		BaseDelay:  cfg.RetryBackoff,
		MaxDelay:   cfg.RetryMaxBackoff,
	}

	runners := make([]*indexer.Runner, 0, len(cfg.Subscriptions))
	for _, sub := range cfg.Subscriptions {
		address, err := indexer.ParseAddress(sub.Address)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.Name, err)
		}
		topic0, err := indexer.ParseTopic0(sub.Topic0)
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", sub.Name, err)
		}

		runner, err := indexer.NewRunner(indexer.RunConfig{
			Subscription:   sub.Name,
			ChainID:        cfg.ChainID,
			Address:        address,
			Topic0:         topic0,
			FromBlock:      cfg.StartBlock(sub),
			ToBlock:        cfg.ToBlock,
			PollInterval:   cfg.PollInterval,
			QueryRetry:     queryRetry,
			TimestampRetry: timestampRetry,
		}, indexer.Deps{
			Source:     b.source,
			Timestamps: b.timestamps,
			Records:    b.records,
			Cursors:    b.cursors,
		}, logger)
		if err != nil {
			return nil, err
		}
		runners = append(runners, runner)
	}
	return runners, nil
}
