package indexer

import (
	"context"
	"errors"
	"testing"
	"time"

	"oraScope/internal/model"
)

type heightFunc func(ctx context.Context) (uint64, error)

func (f heightFunc) Height(ctx context.Context) (uint64, error) { return f(ctx) }

func TestCatchUpReturnsImmediatelyWhenBehind(t *testing.T) {
	calls := 0
	c := NewCatchUp(heightFunc(func(context.Context) (uint64, error) {
		calls++
		return 0, nil
	}), time.Millisecond, nil)

	next, err := c.Wait(context.Background(), model.Batch{ArchiveHeight: 20614970, NextBlock: 20614970})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 20614970 {
		t.Fatalf("expected 20614970, got %d", next)
	}
	if calls != 0 {
		t.Fatalf("expected no height polls, got %d", calls)
	}
}

func TestCatchUpPollsUntilHeightReachesNextBlock(t *testing.T) {
	heights := []uint64{100, 0, 100, 101}
	calls := 0
	c := NewCatchUp(heightFunc(func(context.Context) (uint64, error) {
		h := heights[calls]
		calls++
		if h == 0 {
			return 0, errors.New("temporarily unavailable")
		}
		return h, nil
	}), time.Millisecond, nil)

	next, err := c.Wait(context.Background(), model.Batch{ArchiveHeight: 100, NextBlock: 101})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 101 {
		t.Fatalf("expected 101, got %d", next)
	}
	if calls != 4 {
		t.Fatalf("expected 4 height polls, got %d", calls)
	}
}

func TestCatchUpCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewCatchUp(heightFunc(func(context.Context) (uint64, error) {
		cancel()
		return 5, nil
	}), time.Millisecond, nil)

	_, err := c.Wait(ctx, model.Batch{ArchiveHeight: 5, NextBlock: 6})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
