package notifier

import (
	m "github.com/lodeworks/mooring/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	ActiveSubscriptions prometheus.Gauge
	EventsQueued        prometheus.Counter
	EventsDelivered     prometheus.Counter
	EventsDropped       prometheus.Counter
	DeliveryFailures    prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "notifier"

	return metrics{
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "active_subscriptions",
			Help:      "Number of currently registered subscription endpoints.",
		}),
		EventsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "events_queued",
			Help:      "Number of events queued for delivery.",
		}),
		EventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "events_delivered",
			Help:      "Number of events delivered to endpoints.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "events_dropped",
			Help:      "Number of events dropped because the queue was full.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "delivery_failures",
			Help:      "Number of deliveries abandoned after exhausting retries.",
		}),
	}
}

// Metrics implements the metrics.Collector interface.
func (n *Notifier) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(n.metrics)
}
