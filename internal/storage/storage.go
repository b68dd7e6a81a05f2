package storage

import (
	"context"
	"errors"
	"fmt"

	"oraScope/internal/model"
)

var ErrUnknownTable = errors.New("unknown record table")

// RecordStore persists ingest records. InsertRecord reports false when a
// record with the same tx id is already stored.
type RecordStore interface {
	InsertRecord(ctx context.Context, table string, record model.IngestRecord) (bool, error)
}

// CursorStore persists the last processed block per (chain, subscription).
type CursorStore interface {
	LoadCursor(ctx context.Context, chainID uint64, subscription string) (uint64, bool, error)
	SaveCursor(ctx context.Context, chainID uint64, subscription string, lastProcessed uint64) error
}

// Store is a database backend holding both records and cursors.
type Store interface {
	RecordStore
	CursorStore
	Ping(ctx context.Context) error
	Close() error
}

// ValidateTable rejects table names outside model.RecordTables.
func ValidateTable(table string) error {
	for _, known := range model.RecordTables {
		if table == known {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTable, table)
}
