package diskstore

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/lodeworks/mooring/core/metrics"
)

type metrics struct {
	PutCounter    prometheus.Counter
	DeleteCounter prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "diskstore"

	return metrics{
		PutCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_objects_stored",
			Help:      "Total objects committed to the disk store.",
		}),
		DeleteCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_objects_deleted",
			Help:      "Total objects removed from the disk store.",
		}),
	}
}

// Metrics exposes the store and underlying database collectors.
func (s *Store) Metrics() []prometheus.Collector {
	return append(m.PrometheusCollectorsFromFields(s.metrics), s.db.Metrics()...)
}
