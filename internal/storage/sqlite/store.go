package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"oraScope/internal/model"
	"oraScope/internal/storage"
)

const backend = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS prompt_requests (
  tx_id        TEXT PRIMARY KEY,
  req_id       TEXT NOT NULL,
  chain_id     INTEGER NOT NULL,
  user_address TEXT NOT NULL,
  text         TEXT NOT NULL,
  block_number INTEGER NOT NULL,
  timestamp    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS prompt_answers (
  tx_id        TEXT PRIMARY KEY,
  req_id       TEXT NOT NULL,
  chain_id     INTEGER NOT NULL,
  user_address TEXT NOT NULL,
  text         TEXT NOT NULL,
  block_number INTEGER NOT NULL,
  timestamp    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS processed_transactions (
  chain_id             INTEGER NOT NULL,
  subscription         TEXT NOT NULL,
  last_processed_block INTEGER NOT NULL,
  updated_at           TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(chain_id, subscription)
);
`

// Store wraps a SQLite file holding records and cursors.
type Store struct {
	db *sql.DB
}

// Open initializes a SQLite database and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := configure(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialized")
	}
	return s.db.PingContext(ctx)
}

func configure(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("set pragma %q: %w", p, err)
		}
	}
	// single writer
	db.SetMaxOpenConns(1)
	return nil
}

func applySchema(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Reset drops every table and recreates the schema.
func (s *Store) Reset(ctx context.Context) error {
	tables := append([]string{storage.CursorTable}, model.RecordTables...)
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InsertRecord writes a record in its own transaction.
func (s *Store) InsertRecord(ctx context.Context, table string, record model.IngestRecord) (bool, error) {
	q, args, err := storage.InsertRecordQuery(table, record, sq.Question)
	if err != nil {
		return false, err
	}
	defer storage.ObserveDuration(backend, "insert_record")()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("can't insert into %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return affected == 1, nil
}

// GetRecord returns the stored record for txID.
func (s *Store) GetRecord(ctx context.Context, table, txID string) (model.IngestRecord, bool, error) {
	q, args, err := storage.SelectRecordQuery(table, txID, sq.Question)
	if err != nil {
		return model.IngestRecord{}, false, err
	}
	defer storage.ObserveDuration(backend, "get_record")()

	var rec model.IngestRecord
	err = s.db.QueryRowContext(ctx, q, args...).Scan(
		&rec.TxID, &rec.RequestID, &rec.ChainID, &rec.UserAddress, &rec.Text, &rec.BlockNumber, &rec.Timestamp,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.IngestRecord{}, false, nil
		}
		return model.IngestRecord{}, false, fmt.Errorf("can't get record: %w", err)
	}
	return rec, true, nil
}

func (s *Store) LoadCursor(ctx context.Context, chainID uint64, subscription string) (uint64, bool, error) {
	if subscription == "" {
		return 0, false, errors.New("subscription name required")
	}
	q, args, err := storage.SelectCursorQuery(chainID, subscription, sq.Question)
	if err != nil {
		return 0, false, err
	}
	defer storage.ObserveDuration(backend, "load_cursor")()

	var block uint64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&block); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("can't load cursor: %w", err)
	}
	return block, true, nil
}

func (s *Store) SaveCursor(ctx context.Context, chainID uint64, subscription string, lastProcessed uint64) error {
	q, args, err := storage.UpsertCursorQuery(chainID, subscription, lastProcessed, sq.Question)
	if err != nil {
		return err
	}
	defer storage.ObserveDuration(backend, "save_cursor")()

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("can't save cursor: %w", err)
	}
	return nil
}
