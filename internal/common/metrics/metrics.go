// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_step_transitions_total",
			Help: "Total number of wizard step transitions",
		},
		[]string{"from", "to", "kind"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_validation_failures_total",
			Help: "Total number of field validation failures",
		},
		[]string{"step", "field", "code"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Total number of application submissions by outcome",
		},
		[]string{"backend", "outcome"},
	)

	SubmissionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_submissions_active",
			Help: "Number of submissions currently in flight",
		},
	)

	Suggestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_suggestions_total",
			Help: "Total number of AI suggestion requests by field and status",
		},
		[]string{"field", "status"},
	)

	SuggestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wizard_suggestion_duration_seconds",
			Help:    "Duration of AI suggestion requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"field"},
	)

	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_snapshot_writes_total",
			Help: "Total number of durable snapshot operations",
		},
		[]string{"op", "result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wizard_active_sessions",
			Help: "Number of wizard sessions held in memory",
		},
	)
)
