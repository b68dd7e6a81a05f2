package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"oraScope/internal/model"
)

func TestJSONLStoreDedupesTxID(t *testing.T) {
	var buf bytes.Buffer
	store := NewJSONLWriter(&buf)
	ctx := context.Background()

	rec := model.IngestRecord{TxID: "0x01", RequestID: "7", Text: "first"}
	inserted, err := store.InsertRecord(ctx, model.TablePromptRequests, rec)
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}

	rec.Text = "second"
	inserted, err = store.InsertRecord(ctx, model.TablePromptRequests, rec)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Fatalf("expected duplicate tx id to be ignored")
	}

	// same tx id in the other table is a distinct row
	inserted, err = store.InsertRecord(ctx, model.TablePromptAnswers, rec)
	if err != nil || !inserted {
		t.Fatalf("answer insert: inserted=%v err=%v", inserted, err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var line jsonlLine
	if err := json.Unmarshal([]byte(lines[0]), &line); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if line.Table != model.TablePromptRequests || line.Text != "first" {
		t.Fatalf("unexpected first line: %+v", line)
	}
}

func TestJSONLStoreReloadsSeen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.jsonl")
	ctx := context.Background()
	rec := model.IngestRecord{TxID: "0x02", RequestID: "1"}

	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := store.InsertRecord(ctx, model.TablePromptAnswers, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = NewJSONLStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	inserted, err := store.InsertRecord(ctx, model.TablePromptAnswers, rec)
	if err != nil {
		t.Fatalf("insert after reopen: %v", err)
	}
	if inserted {
		t.Fatalf("expected record from previous run to be deduped")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := strings.Count(string(data), "\n"); n != 1 {
		t.Fatalf("expected 1 line, got %d", n)
	}
}

func TestJSONLStoreRejectsUnknownTable(t *testing.T) {
	store := NewJSONLWriter(&bytes.Buffer{})
	if _, err := store.InsertRecord(context.Background(), "other", model.IngestRecord{TxID: "x"}); err == nil {
		t.Fatalf("expected error for unknown table")
	}
}
