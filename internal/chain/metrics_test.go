package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeRPCError struct{}

func (fakeRPCError) Error() string  { return "limit exceeded" }
func (fakeRPCError) ErrorCode() int { return -32005 }

func TestObserveErrorStatus(t *testing.T) {
	url := "http://test.invalid"

	ObserveError(url, "eth_getLogs", nil)
	ObserveError(url, "eth_getLogs", context.DeadlineExceeded)
	ObserveError(url, "eth_getLogs", fakeRPCError{})
	ObserveError(url, "eth_getLogs", errors.New("connection refused"))

	for status, want := range map[string]float64{
		"ok":           1,
		"timeout":      1,
		"error--32005": 1,
		"error":        1,
	} {
		got := testutil.ToFloat64(RequestResults.WithLabelValues(url, "eth_getLogs", status))
		if got != want {
			t.Fatalf("status %s: got %v, want %v", status, got, want)
		}
	}
}
