package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"oraScope/internal/model"
	"oraScope/internal/storage"
)

var _ storage.Store = (*Store)(nil)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ora.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertRecordIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := model.IngestRecord{
		TxID:        "0xaaa",
		RequestID:   "115792089237316195423570985008687907853269984665640564039457584007913129639935",
		ChainID:     0,
		UserAddress: "0x00000000000000000000000000000000000000aa",
		Text:        "what is the meaning of life",
		BlockNumber: 20614966,
		Timestamp:   1724900000,
	}

	inserted, err := store.InsertRecord(ctx, model.TablePromptRequests, rec)
	require.NoError(t, err)
	require.True(t, inserted)

	dup := rec
	dup.Text = "overwritten"
	dup.Timestamp = 1
	inserted, err = store.InsertRecord(ctx, model.TablePromptRequests, dup)
	require.NoError(t, err)
	require.False(t, inserted)

	got, ok, err := store.GetRecord(ctx, model.TablePromptRequests, rec.TxID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rec, got)

	_, ok, err = store.GetRecord(ctx, model.TablePromptAnswers, rec.TxID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInsertRecordUnknownTable(t *testing.T) {
	store := openTestStore(t)
	_, err := store.InsertRecord(context.Background(), "sqlite_master", model.IngestRecord{TxID: "x"})
	require.ErrorIs(t, err, storage.ErrUnknownTable)
}

func TestCursorRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, ok, err := store.LoadCursor(ctx, 0, "prompt-requests")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SaveCursor(ctx, 0, "prompt-requests", 20614965))
	require.NoError(t, store.SaveCursor(ctx, 0, "prompt-requests", 20614970))
	require.NoError(t, store.SaveCursor(ctx, 0, "prompt-answers", 20614980))

	got, ok, err := store.LoadCursor(ctx, 0, "prompt-requests")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(20614970), got)

	got, ok, err = store.LoadCursor(ctx, 0, "prompt-answers")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(20614980), got)
}

func TestReset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.InsertRecord(ctx, model.TablePromptAnswers, model.IngestRecord{TxID: "0x1", RequestID: "1"})
	require.NoError(t, err)
	require.NoError(t, store.SaveCursor(ctx, 0, "prompt-answers", 10))

	require.NoError(t, store.Reset(ctx))

	_, ok, err := store.GetRecord(ctx, model.TablePromptAnswers, "0x1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = store.LoadCursor(ctx, 0, "prompt-answers")
	require.NoError(t, err)
	require.False(t, ok)
}
