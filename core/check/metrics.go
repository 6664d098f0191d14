package check

import (
	m "github.com/lodeworks/mooring/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	ConsistencyFailures prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "check"

	return metrics{
		ConsistencyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "consistency_failures",
			Help:      "Number of candidates rejected by the consistency checker.",
		}),
	}
}

// Metrics implements the metrics.Collector interface.
func (c *Checker) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(c.metrics)
}

type guardMetrics struct {
	AuthorizationFailures   prometheus.Counter
	DependencyFetches       prometheus.Counter
	DependencyFetchFailures prometheus.Counter
}

func newGuardMetrics() guardMetrics {
	subsystem := "check"

	return guardMetrics{
		AuthorizationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "authorization_failures",
			Help:      "Number of candidates rejected by the authorization guard.",
		}),
		DependencyFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "dependency_fetches",
			Help:      "Number of identity fetches issued to remote replicas.",
		}),
		DependencyFetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "dependency_fetch_failures",
			Help:      "Number of identity fetches that failed or returned bad data.",
		}),
	}
}

// Metrics implements the metrics.Collector interface.
func (g *Guard) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(g.metrics)
}
