package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"oraScope/internal/model"
)

// HeightSource reports how far the upstream log source has indexed.
type HeightSource interface {
	Height(ctx context.Context) (uint64, error)
}

// CatchUp holds the loop back while a batch reports that the source has
// nothing beyond NextBlock yet.
type CatchUp struct {
	source   HeightSource
	interval time.Duration
	logger   *zap.Logger
}

func NewCatchUp(source HeightSource, interval time.Duration, logger *zap.Logger) *CatchUp {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatchUp{source: source, interval: interval, logger: logger}
}

// Wait returns the block to fetch next. When the batch is caught up it
// polls Height every interval until it reaches batch.NextBlock.
func (c *CatchUp) Wait(ctx context.Context, batch model.Batch) (uint64, error) {
	if !batch.CaughtUp() {
		return batch.NextBlock, nil
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	height := batch.ArchiveHeight
	for height < batch.NextBlock {
		c.logger.Debug("waiting for chain to advance", zap.Uint64("height", height), zap.Uint64("next_block", batch.NextBlock))

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}

		h, err := c.source.Height(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			c.logger.Warn("height poll failed", zap.Error(err))
			continue
		}
		height = h
	}
	return batch.NextBlock, nil
}
