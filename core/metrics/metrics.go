// Package metrics provides the prometheus namespace and helpers used
// by the per-package metrics structs.
package metrics

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric exposed by this process.
const Namespace = "mooring"

// Collector is implemented by services exposing prometheus collectors.
type Collector interface {
	Metrics() []prometheus.Collector
}

// PrometheusCollectorsFromFields returns all prometheus.Collector
// fields of the passed struct value, so that metrics structs do not
// need to enumerate their own fields.
func PrometheusCollectorsFromFields(i interface{}) (collectors []prometheus.Collector) {
	v := reflect.Indirect(reflect.ValueOf(i))
	for n := 0; n < v.NumField(); n++ {
		f := v.Field(n)
		if !f.CanInterface() {
			continue
		}
		if u, ok := f.Interface().(prometheus.Collector); ok {
			collectors = append(collectors, u)
		}
	}
	return collectors
}
