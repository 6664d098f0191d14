package api

import (
	m "github.com/lodeworks/mooring/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	PageviewCount      prometheus.Counter
	PublishAccepted    prometheus.Counter
	PublishRejected    prometheus.Counter
	WebsocketSessions  prometheus.Gauge
	WebhooksRegistered prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "api"

	return metrics{
		PageviewCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "pageviews",
			Help:      "Number of HTTP requests served.",
		}),
		PublishAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "publish_accepted",
			Help:      "Number of publish calls resulting in a new object.",
		}),
		PublishRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "publish_rejected",
			Help:      "Number of publish calls rejected by the pipeline.",
		}),
		WebsocketSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "websocket_sessions",
			Help:      "Number of open websocket subscription sessions.",
		}),
		WebhooksRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "webhooks_registered",
			Help:      "Number of webhook subscriptions registered.",
		}),
	}
}

// Metrics implements the metrics.Collector interface.
func (s *server) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(s.metrics)
}
