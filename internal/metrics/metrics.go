// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shuttleclub_ledger_entries_total",
		Help: "Committed ledger entries by account type",
	}, []string{"type"})

	SessionTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shuttleclub_session_transitions_total",
		Help: "Session status changes by target status",
	}, []string{"status"})

	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shuttleclub_payment_transitions_total",
		Help: "Payment status changes by target status",
	}, []string{"status"})

	OperationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shuttleclub_operation_failures_total",
		Help: "Rejected or aborted operations by operation and error kind",
	}, []string{"operation", "kind"})

	EventPublishLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shuttleclub_event_publish_duration_seconds",
		Help:    "Time taken to push ledger events to Redis",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	EventErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shuttleclub_event_errors_total",
		Help: "Ledger events that could not be published",
	})
)
