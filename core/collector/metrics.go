package collector

import (
	m "github.com/lodeworks/mooring/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	ObjectsCollected prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "collector"

	return metrics{
		ObjectsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "objects_collected",
			Help:      "Number of objects removed by the collector.",
		}),
	}
}

// Metrics implements the metrics.Collector interface.
func (c *Collector) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(c.metrics)
}
