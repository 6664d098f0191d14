package validator

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/lodeworks/mooring/core/metrics"
)

type metrics struct {
	ValidCounter          prometheus.Counter
	StructuralFailCounter prometheus.Counter
	SignatureFailCounter  prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "validator"

	return metrics{
		ValidCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_valid",
			Help:      "Total objects that passed validation.",
		}),
		StructuralFailCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_structural_failures",
			Help:      "Total objects rejected as structurally malformed.",
		}),
		SignatureFailCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "total_signature_failures",
			Help:      "Total objects rejected for invalid signatures.",
		}),
	}
}

// Metrics exposes the validation counters.
func (v *Validator) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(v.metrics)
}
