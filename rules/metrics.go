package rules

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var candidatesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auditx_rule_candidates_total",
		Help: "Candidate events produced by the correlation rules before dedup, by event type.",
	},
	[]string{"event_type"},
)
