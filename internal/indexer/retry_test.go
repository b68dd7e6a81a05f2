package indexer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetryStopsAfterMaxRetries(t *testing.T) {
	calls := 0
	errBoom := errors.New("boom")
	err := withRetry(context.Background(), RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}, func(context.Context) error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestWithRetryUnlimitedUntilSuccess(t *testing.T) {
	calls := 0
	policy := RetryPolicy{MaxRetries: -1, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	err := withRetry(context.Background(), policy, func(context.Context) error {
		calls++
		if calls < 6 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 6 {
		t.Fatalf("expected 6 attempts, got %d", calls)
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, RetryPolicy{MaxRetries: -1, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}
