package interpret

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditx_interpret_analyses_total",
			Help: "Event interpretations by analysis source.",
		},
		[]string{"source"},
	)
	explainerSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auditx_interpret_explainer_duration_seconds",
			Help:    "Duration of explainer calls, including rate limiter waits.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)
