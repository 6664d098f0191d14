package httppeer

import (
	m "github.com/lodeworks/mooring/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	FetchHits  prometheus.Counter
	Pushes     prometheus.Counter
	PeerErrors prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "httppeer"

	return metrics{
		FetchHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetch_hits",
			Help:      "Number of objects fetched from remote replicas.",
		}),
		Pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "pushes",
			Help:      "Number of objects pushed to remote replicas.",
		}),
		PeerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "peer_errors",
			Help:      "Number of failed calls to remote replicas.",
		}),
	}
}

// Metrics implements the metrics.Collector interface.
func (s *Service) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(s.metrics)
}
