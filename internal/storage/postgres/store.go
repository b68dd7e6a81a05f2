package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"oraScope/internal/model"
	"oraScope/internal/storage"
)

const backend = "postgres"

// Store provides Postgres persistence for records and cursors.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("can't create postgres pool: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InsertRecord writes a record in its own transaction on a pooled
// connection. The connection is released and the transaction rolled back
// on every error path.
func (s *Store) InsertRecord(ctx context.Context, table string, record model.IngestRecord) (bool, error) {
	q, args, err := storage.InsertRecordQuery(table, record, sq.Dollar)
	if err != nil {
		return false, err
	}
	defer storage.ObserveDuration(backend, "insert_record")()

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	// no-op once committed
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("can't insert into %s: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetRecord returns the stored record for txID.
func (s *Store) GetRecord(ctx context.Context, table, txID string) (model.IngestRecord, bool, error) {
	q, args, err := storage.SelectRecordQuery(table, txID, sq.Dollar)
	if err != nil {
		return model.IngestRecord{}, false, err
	}
	defer storage.ObserveDuration(backend, "get_record")()

	var (
		rec                model.IngestRecord
		chainID, block, ts int64
	)
	err = s.pool.QueryRow(ctx, q, args...).Scan(
		&rec.TxID, &rec.RequestID, &chainID, &rec.UserAddress, &rec.Text, &block, &ts,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.IngestRecord{}, false, nil
		}
		return model.IngestRecord{}, false, fmt.Errorf("can't get record: %w", err)
	}
	rec.ChainID = uint64(chainID)
	rec.BlockNumber = uint64(block)
	rec.Timestamp = uint64(ts)
	return rec, true, nil
}

// LoadCursor returns the last processed block for a subscription.
func (s *Store) LoadCursor(ctx context.Context, chainID uint64, subscription string) (uint64, bool, error) {
	if subscription == "" {
		return 0, false, fmt.Errorf("subscription name required")
	}
	q, args, err := storage.SelectCursorQuery(chainID, subscription, sq.Dollar)
	if err != nil {
		return 0, false, err
	}
	defer storage.ObserveDuration(backend, "load_cursor")()

	var block int64
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("can't load cursor: %w", err)
	}
	return uint64(block), true, nil
}

// SaveCursor upserts the last processed block for a subscription.
func (s *Store) SaveCursor(ctx context.Context, chainID uint64, subscription string, lastProcessed uint64) error {
	q, args, err := storage.UpsertCursorQuery(chainID, subscription, lastProcessed, sq.Dollar)
	if err != nil {
		return err
	}
	defer storage.ObserveDuration(backend, "save_cursor")()

	if _, err := s.pool.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("can't save cursor: %w", err)
	}
	return nil
}
