package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record outcomes.
const (
	OutcomeInserted    = "inserted"
	OutcomeDuplicate   = "duplicate"
	OutcomeDecodeError = "decode_error"
	OutcomeIgnored     = "ignored"
	OutcomeSkipped     = "skipped"
	OutcomeFailed      = "failed"
)

var (
	CursorBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ora_indexer",
		Subsystem: "sync",
		Name:      "cursor_block",
		Help:      "Next block the subscription will fetch.",
	}, []string{"subscription"})
	HeadBlock = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ora_indexer",
		Subsystem: "sync",
		Name:      "head_block",
		Help:      "Latest archive height reported by the log source.",
	}, []string{"subscription"})
	Synced = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ora_indexer",
		Subsystem: "sync",
		Name:      "synced",
		Help:      "1 while the subscription is waiting for new blocks.",
	}, []string{"subscription"})
	RecordOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ora_indexer",
		Subsystem: "records",
		Name:      "total",
		Help:      "Processed logs by outcome.",
	}, []string{"subscription", "outcome"})
)
