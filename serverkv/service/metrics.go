package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "hubert"

// Registry is the server's own Prometheus registry, exposed at /metrics
// when a Server is created WithMetrics. Kept separate from the default
// global registerer so multiple Servers in one process (tests) don't
// collide on metric registration.
var Registry = prometheus.NewRegistry()

var (
	putsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "puts_total",
			Help:      "Total number of PUT requests by outcome",
		},
		[]string{"outcome"}, // ok, conflict, bad_request, error
	)

	getsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "gets_total",
			Help:      "Total number of GET requests by outcome",
		},
		[]string{"outcome"}, // ok, not_found, bad_request, error
	)

	entriesPruned = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "server",
			Name:      "entries_pruned_total",
			Help:      "Total number of entries removed by the expiry sweep",
		},
	)
)
