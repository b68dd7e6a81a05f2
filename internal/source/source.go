package source

import (
	"context"

	"oraScope/internal/model"
)

// LogSource is a remote log provider that reports its own progress.
type LogSource interface {
	// Query returns the logs available from q.FromBlock on, the source's known
	// height and the block the next query should start from.
	Query(ctx context.Context, q model.LogQuery) (model.Batch, error)
	// Height returns the current known height of the source.
	Height(ctx context.Context) (uint64, error)
}
