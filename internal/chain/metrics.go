package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ora_indexer",
		Subsystem: "rpc",
		Name:      "request_results_total",
		Help:      "RPC requests by endpoint, method and outcome.",
	}, []string{"url", "query", "status"})

	RequestDurations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ora_indexer",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "RPC request latency.",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 20},
	}, []string{"url", "query"})
)

// ObserveError records the outcome of one RPC request.
func ObserveError(url, query string, err error) {
	if err == nil {
		RequestResults.WithLabelValues(url, query, "ok").Inc()
		return
	}
	var rpcErr rpc.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		RequestResults.WithLabelValues(url, query, "timeout").Inc()
	case errors.As(err, &rpcErr):
		RequestResults.WithLabelValues(url, query, fmt.Sprintf("error-%d", rpcErr.ErrorCode())).Inc()
	default:
		RequestResults.WithLabelValues(url, query, "error").Inc()
	}
}

// ObserveDuration starts a request timer; call the result when the request completes.
func ObserveDuration(url, query string) func() time.Duration {
	return prometheus.NewTimer(RequestDurations.WithLabelValues(url, query)).ObserveDuration
}
