package webapp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scan metrics for the serve surface.
var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websentry_scans_total",
		Help: "Completed scan requests by outcome.",
	}, []string{"outcome"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "websentry_scan_duration_seconds",
		Help:    "End-to-end scan duration.",
		Buckets: prometheus.DefBuckets,
	})

	llmFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websentry_llm_fallbacks_total",
		Help: "Scans where the LLM summary path was configured but the rule-based fallback was used.",
	})
)
