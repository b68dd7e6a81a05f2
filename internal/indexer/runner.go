package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"oraScope/internal/model"
	"oraScope/internal/ora"
	"oraScope/internal/source"
	"oraScope/internal/storage"
)

// RunConfig holds runtime settings for one subscription.
type RunConfig struct {
	Subscription string
	ChainID      uint64
	Address      common.Address
	Topic0       common.Hash
	FromBlock    uint64
	// ToBlock is inclusive; zero follows the chain head forever.
	ToBlock        uint64
	PollInterval   time.Duration
	QueryRetry     RetryPolicy
	TimestampRetry RetryPolicy
}

// TimestampResolver maps a block number to its unix timestamp.
type TimestampResolver interface {
	BlockTimestamp(ctx context.Context, blockNumber uint64) (uint64, error)
}

// Deps are the collaborators a Runner drives. Cursors may be nil, in which
// case progress is kept in memory only.
type Deps struct {
	Source     source.LogSource
	Timestamps TimestampResolver
	Records    storage.RecordStore
	Cursors    storage.CursorStore
}

// Runner streams one subscription's logs from the source into the record
// store.
type Runner struct {
	cfg        RunConfig
	deps       Deps
	decoder    *ora.Decoder
	classifier *ora.Classifier
	catchUp    *CatchUp
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, deps Deps, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Subscription == "" {
		return nil, fmt.Errorf("subscription name is required")
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("log source is nil")
	}
	if deps.Timestamps == nil {
		return nil, fmt.Errorf("timestamp resolver is nil")
	}
	if deps.Records == nil {
		return nil, fmt.Errorf("record store is nil")
	}
	if cfg.ToBlock != 0 && cfg.ToBlock < cfg.FromBlock {
		return nil, fmt.Errorf("to block %d is before from block %d", cfg.ToBlock, cfg.FromBlock)
	}

	decoder, err := ora.NewDecoder(cfg.Topic0)
	if err != nil {
		return nil, fmt.Errorf("subscription %s: %w", cfg.Subscription, err)
	}

	logger = logger.With(zap.String("subscription", cfg.Subscription), zap.Uint64("chain_id", cfg.ChainID))
	return &Runner{
		cfg:        cfg,
		deps:       deps,
		decoder:    decoder,
		classifier: ora.NewClassifier(),
		catchUp:    NewCatchUp(deps.Source, cfg.PollInterval, logger),
		logger:     logger,
	}, nil
}

// Run executes the ingestion loop. It returns nil when ctx is cancelled or
// when a bounded run has passed ToBlock.
func (r *Runner) Run(ctx context.Context) error {
	cursor, err := r.startBlock(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("start ingestion",
		zap.String("event", r.decoder.Schema().Name),
		zap.String("address", r.cfg.Address.Hex()),
		zap.Uint64("from", cursor),
		zap.Uint64("to", r.cfg.ToBlock),
	)

	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.passedBound(cursor) {
			r.logger.Info("reached end block", zap.Uint64("to", r.cfg.ToBlock))
			return nil
		}
		CursorBlock.WithLabelValues(r.cfg.Subscription).Set(float64(cursor))

		batch, err := r.queryWithRetry(ctx, cursor)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("query logs: %w", err)
		}
		HeadBlock.WithLabelValues(r.cfg.Subscription).Set(float64(batch.ArchiveHeight))

		counts, complete := r.drain(ctx, batch.Logs)
		if !complete {
			return nil
		}
		if len(batch.Logs) == 0 {
			r.logger.Debug("no logs found", zap.Uint64("from", cursor), zap.Uint64("next_block", batch.NextBlock))
		} else {
			r.logger.Info("batch complete",
				zap.Int("logs", len(batch.Logs)),
				zap.Int("inserted", counts[OutcomeInserted]),
				zap.Uint64("from", cursor),
				zap.Uint64("next_block", batch.NextBlock),
			)
		}

		if batch.NextBlock < cursor {
			r.logger.Warn("source moved backwards, keeping cursor", zap.Uint64("cursor", cursor), zap.Uint64("next_block", batch.NextBlock))
			batch.NextBlock = cursor
		}
		if batch.NextBlock > cursor {
			r.saveCursor(ctx, batch.NextBlock-1)
		}
		if r.passedBound(batch.NextBlock) {
			cursor = batch.NextBlock
			continue
		}

		if batch.CaughtUp() {
			Synced.WithLabelValues(r.cfg.Subscription).Set(1)
		}
		next, err := r.catchUp.Wait(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("catch up: %w", err)
		}
		Synced.WithLabelValues(r.cfg.Subscription).Set(0)
		cursor = next
	}
}

func (r *Runner) passedBound(block uint64) bool {
	return r.cfg.ToBlock != 0 && block > r.cfg.ToBlock
}

// startBlock resumes from the stored cursor when it is ahead of FromBlock.
func (r *Runner) startBlock(ctx context.Context) (uint64, error) {
	from := r.cfg.FromBlock
	if r.deps.Cursors == nil {
		return from, nil
	}
	last, ok, err := r.deps.Cursors.LoadCursor(ctx, r.cfg.ChainID, r.cfg.Subscription)
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}
	if ok && last >= from {
		from = last + 1
		r.logger.Info("resume from cursor", zap.Uint64("last_processed", last), zap.Uint64("from", from))
	}
	return from, nil
}

func (r *Runner) saveCursor(ctx context.Context, lastProcessed uint64) {
	if r.deps.Cursors == nil {
		return
	}
	if err := r.deps.Cursors.SaveCursor(ctx, r.cfg.ChainID, r.cfg.Subscription, lastProcessed); err != nil {
		r.logger.Error("save cursor failed", zap.Error(err), zap.Uint64("last_processed", lastProcessed))
	}
}

func (r *Runner) queryWithRetry(ctx context.Context, from uint64) (model.Batch, error) {
	query := model.LogQuery{
		Address:   r.cfg.Address,
		Topic0:    r.cfg.Topic0,
		FromBlock: from,
		ToBlock:   r.cfg.ToBlock,
		ChainID:   r.cfg.ChainID,
	}
	var batch model.Batch
	err := withRetry(ctx, r.cfg.QueryRetry, func(ctx context.Context) error {
		var err error
		batch, err = r.deps.Source.Query(ctx, query)
		if err != nil && ctx.Err() == nil {
			r.logger.Warn("query logs failed", zap.Error(err), zap.Uint64("from", from))
		}
		return err
	})
	return batch, err
}

func (r *Runner) blockTimestampWithRetry(ctx context.Context, blockNumber uint64) (uint64, error) {
	var ts uint64
	err := withRetry(ctx, r.cfg.TimestampRetry, func(ctx context.Context) error {
		var err error
		ts, err = r.deps.Timestamps.BlockTimestamp(ctx, blockNumber)
		if err != nil && ctx.Err() == nil {
			r.logger.Warn("block timestamp fetch failed", zap.Error(err), zap.Uint64("block_number", blockNumber))
		}
		return err
	})
	return ts, err
}

// drain handles logs sequentially in source order. It reports false when
// ctx was cancelled before every log was handled.
func (r *Runner) drain(ctx context.Context, logs []model.RawLog) (map[string]int, bool) {
	counts := make(map[string]int)
	for _, log := range logs {
		if ctx.Err() != nil {
			return counts, false
		}
		outcome := r.handleLog(ctx, log)
		if ctx.Err() != nil && outcome != OutcomeInserted && outcome != OutcomeDuplicate {
			return counts, false
		}
		counts[outcome]++
		RecordOutcomes.WithLabelValues(r.cfg.Subscription, outcome).Inc()
	}
	return counts, true
}

func (r *Runner) handleLog(ctx context.Context, log model.RawLog) string {
	fields := []zap.Field{
		zap.String("tx_hash", log.TxHash.Hex()),
		zap.Uint64("block_number", log.BlockNumber),
		zap.Uint64("log_index", log.LogIndex),
	}

	event, err := r.decoder.Decode(log)
	if err != nil {
		r.logger.Warn("decode log failed", append(fields, zap.Error(err))...)
		return OutcomeDecodeError
	}

	mapping, ok := r.classifier.Classify(event)
	if !ok {
		r.logger.Debug("ignore unclassified event", append(fields, zap.String("event", event.Name))...)
		return OutcomeIgnored
	}

	ts, err := r.blockTimestampWithRetry(ctx, log.BlockNumber)
	if err != nil {
		r.logger.Warn("skip log without block timestamp", append(fields, zap.Error(err))...)
		return OutcomeSkipped
	}

	record, err := mapping.Record(event, log, r.cfg.ChainID, ts)
	if err != nil {
		r.logger.Warn("build record failed", append(fields, zap.Error(err))...)
		return OutcomeDecodeError
	}

	inserted, err := r.deps.Records.InsertRecord(ctx, mapping.Table, record)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("insert record failed", append(fields, zap.String("table", mapping.Table), zap.Error(err))...)
		}
		return OutcomeFailed
	}
	if !inserted {
		r.logger.Debug("record already stored", append(fields, zap.String("table", mapping.Table))...)
		return OutcomeDuplicate
	}
	r.logger.Info("inserted record", append(fields, zap.String("table", mapping.Table), zap.String("req_id", record.RequestID))...)
	return OutcomeInserted
}
