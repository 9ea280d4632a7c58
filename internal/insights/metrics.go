package insights

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	toolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "tool_invocations_total",
			Help:      "Total analytics tool invocations",
		},
		[]string{"tool", "status"}, // status: "ok", "error"
	)

	sourceFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spyglass",
			Name:      "source_fallbacks_total",
			Help:      "Times a metrics fetch fell back from one source to another",
		},
		[]string{"from", "to"},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spyglass",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of analytics backend fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
