// ABOUTME: Prometheus instrumentation for the query cache
// ABOUTME: Counts lookups by outcome and fetches by result
package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crmview",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by result (hit, stale, miss, joined).",
	}, []string{"result"})

	fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "crmview",
		Subsystem: "cache",
		Name:      "fetches_total",
		Help:      "Completed fetches by outcome (success, error, discarded).",
	}, []string{"outcome"})

	inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "crmview",
		Subsystem: "cache",
		Name:      "inflight_fetches",
		Help:      "Fetches currently waiting on the network.",
	})
)
