package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileCursorStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cursors")
	store := NewFileCursorStore(dir)
	ctx := context.Background()

	_, ok, err := store.LoadCursor(ctx, 0, "prompt-requests")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if ok {
		t.Fatalf("expected no cursor before save")
	}

	if err := store.SaveCursor(ctx, 0, "prompt-requests", 20614970); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveCursor(ctx, 0, "prompt-answers", 20614000); err != nil {
		t.Fatalf("save other: %v", err)
	}

	got, ok, err := store.LoadCursor(ctx, 0, "prompt-requests")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got != 20614970 {
		t.Fatalf("expected 20614970, got %d", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "0-prompt-requests.json.tmp")); !os.IsNotExist(err) {
		t.Fatalf("expected tmp file to be renamed away, stat err=%v", err)
	}
}

func TestFileCursorStoreSanitizesName(t *testing.T) {
	dir := t.TempDir()
	store := NewFileCursorStore(dir)
	if err := store.SaveCursor(context.Background(), 1, "../escape", 5); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "1-___escape.json")); err != nil {
		t.Fatalf("expected sanitized file: %v", err)
	}
}
