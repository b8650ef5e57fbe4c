// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutations counts successful logbook mutations by aggregate and operation.
var Mutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitelog",
	Subsystem: "logbook",
	Name:      "mutations_total",
	Help:      "Successful logbook mutations by kind (entry, category, import) and operation.",
}, []string{"kind", "op"})

// MutationErrors counts rejected mutations by kind and error class.
var MutationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitelog",
	Subsystem: "logbook",
	Name:      "mutation_errors_total",
	Help:      "Rejected logbook mutations by kind and error class.",
}, []string{"kind", "class"})

var Entries = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sitelog",
	Subsystem: "logbook",
	Name:      "entries",
	Help:      "Number of entries currently held.",
})

var Saves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitelog",
	Subsystem: "persistence",
	Name:      "saves_total",
	Help:      "Blob saves by key and result.",
}, []string{"key", "result"})

var AnalysisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitelog",
	Subsystem: "analysis",
	Name:      "requests_total",
	Help:      "Analysis requests by outcome (success, error, cached).",
}, []string{"outcome"})

var AnalysisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sitelog",
	Subsystem: "analysis",
	Name:      "latency_seconds",
	Help:      "Latency of upstream analysis calls.",
	Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
})

var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitelog",
	Subsystem: "amqp",
	Name:      "events_published_total",
	Help:      "Change events published by result.",
}, []string{"result"})

var Mirrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitelog",
	Subsystem: "worker",
	Name:      "mirrors_total",
	Help:      "Spreadsheet mirror runs by trigger and result.",
}, []string{"trigger", "result"})
