package pipeline

import (
	m "github.com/lodeworks/mooring/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	TotalSubmitted  prometheus.Counter
	TotalAccepted   prometheus.Counter
	TotalDuplicates prometheus.Counter
	TotalRejected   prometheus.Counter
	TotalAcked      prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "pipeline"

	return metrics{
		TotalSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_submitted",
			Help:      "Total number of submissions entering the pipeline.",
		}),
		TotalAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_accepted",
			Help:      "Total number of submissions committed to the store.",
		}),
		TotalDuplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_duplicates",
			Help:      "Total number of submissions already present in the store.",
		}),
		TotalRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_rejected",
			Help:      "Total number of submissions rejected by a pipeline stage.",
		}),
		TotalAcked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_acked",
			Help:      "Total number of requests consumed by acknowledgement.",
		}),
	}
}

// Metrics implements the metrics.Collector interface.
func (p *Pipeline) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(p.metrics)
}
