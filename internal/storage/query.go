package storage

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"oraScope/internal/model"
)

const CursorTable = "processed_transactions"

var recordColumns = []string{
	"tx_id", "req_id", "chain_id", "user_address", "text", "block_number", "timestamp",
}

// InsertRecordQuery builds an insert that leaves an existing row with the
// same tx_id untouched.
func InsertRecordQuery(table string, record model.IngestRecord, format sq.PlaceholderFormat) (string, []interface{}, error) {
	if err := ValidateTable(table); err != nil {
		return "", nil, err
	}
	q, args, err := sq.Insert(table).
		Columns(recordColumns...).
		Values(
			record.TxID,
			record.RequestID,
			int64(record.ChainID),
			record.UserAddress,
			record.Text,
			int64(record.BlockNumber),
			int64(record.Timestamp),
		).
		Suffix("ON CONFLICT (tx_id) DO NOTHING").
		PlaceholderFormat(format).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("can't build insert query: %w", err)
	}
	return q, args, nil
}

// SelectRecordQuery fetches a single record by tx_id.
func SelectRecordQuery(table, txID string, format sq.PlaceholderFormat) (string, []interface{}, error) {
	if err := ValidateTable(table); err != nil {
		return "", nil, err
	}
	q, args, err := sq.Select(recordColumns...).
		From(table).
		Where(sq.Eq{"tx_id": txID}).
		PlaceholderFormat(format).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("can't build select query: %w", err)
	}
	return q, args, nil
}

func SelectCursorQuery(chainID uint64, subscription string, format sq.PlaceholderFormat) (string, []interface{}, error) {
	q, args, err := sq.Select("last_processed_block").
		From(CursorTable).
		Where(sq.Eq{
			"chain_id":     int64(chainID),
			"subscription": subscription,
		}).
		PlaceholderFormat(format).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("can't build cursor query: %w", err)
	}
	return q, args, nil
}

func UpsertCursorQuery(chainID uint64, subscription string, lastProcessed uint64, format sq.PlaceholderFormat) (string, []interface{}, error) {
	if subscription == "" {
		return "", nil, fmt.Errorf("subscription name required")
	}
	q, args, err := sq.Insert(CursorTable).
		Columns("chain_id", "subscription", "last_processed_block", "updated_at").
		Values(int64(chainID), subscription, int64(lastProcessed), sq.Expr("CURRENT_TIMESTAMP")).
		Suffix("ON CONFLICT (chain_id, subscription) DO UPDATE SET " +
			"last_processed_block = EXCLUDED.last_processed_block, updated_at = CURRENT_TIMESTAMP").
		PlaceholderFormat(format).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("can't build cursor upsert: %w", err)
	}
	return q, args, nil
}
