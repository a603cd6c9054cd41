package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campaign",
			Name:      "emails_processed_total",
			Help:      "Total per-recipient send attempts.",
		},
		[]string{"status"}, // sent, failed
	)

	DispatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campaign",
			Name:      "dispatch_runs_total",
			Help:      "Total campaign dispatch runs by outcome.",
		},
		[]string{"outcome"}, // completed, not_found, already_sent, in_progress, cancelled, error
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "campaign",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a full campaign dispatch run.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 14),
		},
	)
)
