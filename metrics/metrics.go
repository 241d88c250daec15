// metrics/metrics.go - Engine metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts completed evaluation cycles.
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shelfquest",
		Name:      "cycles_total",
		Help:      "Number of completed evaluation cycles.",
	})

	// EventsEmitted counts candidate events produced by evaluators, before
	// ledger dedup.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelfquest",
		Name:      "events_emitted_total",
		Help:      "Candidate award events emitted, by evaluator.",
	}, []string{"evaluator"})

	// AwardsInserted counts awards actually written to the ledger.
	AwardsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shelfquest",
		Name:      "awards_inserted_total",
		Help:      "Awards newly inserted into the ledger.",
	})

	// EvaluatorFailures counts recovered evaluator panics.
	EvaluatorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelfquest",
		Name:      "evaluator_failures_total",
		Help:      "Evaluator invocations that panicked and were skipped.",
	}, []string{"evaluator"})

	// FetchFailures counts failed provider fetches, by dataset.
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shelfquest",
		Name:      "fetch_failures_total",
		Help:      "Failed fetches from the stats provider, by dataset.",
	}, []string{"dataset"})

	// CycleDuration observes wall-clock time per evaluation cycle.
	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shelfquest",
		Name:      "cycle_duration_seconds",
		Help:      "Wall-clock duration of one evaluation cycle.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
