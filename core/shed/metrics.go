package shed

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/lodeworks/mooring/core/metrics"
)

type metrics struct {
	PutCounter            prometheus.Counter
	PutFailCounter        prometheus.Counter
	GetCounter            prometheus.Counter
	GetFailCounter        prometheus.Counter
	GetNotFoundCounter    prometheus.Counter
	HasCounter            prometheus.Counter
	HasFailCounter        prometheus.Counter
	DeleteCounter         prometheus.Counter
	DeleteFailCounter     prometheus.Counter
	IteratorCounter       prometheus.Counter
	WriteBatchCounter     prometheus.Counter
	WriteBatchFailCounter prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "shed"

	return metrics{
		PutCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "put_count",
			Help:      "Number of times the PUT operation is done.",
		}),
		PutFailCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "put_fail_count",
			Help:      "Number of times the PUT operation failed.",
		}),
		GetCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "get_count",
			Help:      "Number of times the GET operation is done.",
		}),
		GetFailCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "get_fail_count",
			Help:      "Number of times the GET operation failed.",
		}),
		GetNotFoundCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "get_not_found_count",
			Help:      "Number of times the GET operation could not find key.",
		}),
		HasCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "has_count",
			Help:      "Number of times the HAS operation is done.",
		}),
		HasFailCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "has_fail_count",
			Help:      "Number of times the HAS operation failed.",
		}),
		DeleteCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "delete_count",
			Help:      "Number of times the DELETE operation is done.",
		}),
		DeleteFailCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "delete_fail_count",
			Help:      "Number of times the DELETE operation failed.",
		}),
		IteratorCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "iterator_count",
			Help:      "Number of times an iterator is created.",
		}),
		WriteBatchCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "write_batch_count",
			Help:      "Number of times the WRITE_BATCH operation is done.",
		}),
		WriteBatchFailCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "write_batch_fail_count",
			Help:      "Number of times the WRITE_BATCH operation failed.",
		}),
	}
}

// Metrics exposes the DB operation counters.
func (db *DB) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(db.metrics)
}
