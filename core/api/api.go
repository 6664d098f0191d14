// Package api exposes the engine over HTTP: publishing objects,
// reading them back, querying the reference graph, the request
// mailbox, and subscriptions over websocket or webhook.
package api

import (
	"errors"
	"net/http"

	"github.com/lodeworks/mooring/core/jsonhttp"
	"github.com/lodeworks/mooring/core/logging"
	m "github.com/lodeworks/mooring/core/metrics"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/pipeline"
	"github.com/lodeworks/mooring/core/tracer"
	"github.com/prometheus/client_golang/prometheus"
)

// Version is the API version exposed by the health endpoint.
const Version = "1.0"

var errInvalidAddress = errors.New("invalid address")

// Service is the API service interface.
type Service interface {
	http.Handler
	m.Collector
}

type server struct {
	Engine *pipeline.Pipeline
	Logger logging.Logger
	Tracer *tracer.Tracer

	http.Handler
	metrics  metrics
	registry *prometheus.Registry
	ready    func() bool
}

// New creates and initializes a new API service. The registry backs
// the /metrics endpoint and may be nil. ready reports whether the node
// finished reconciling; it may be nil.
func New(engine *pipeline.Pipeline, registry *prometheus.Registry, ready func() bool, logger logging.Logger, tr *tracer.Tracer) Service {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	s := &server{
		Engine:   engine,
		Logger:   logger,
		Tracer:   tr,
		metrics:  newMetrics(),
		registry: registry,
		ready:    ready,
	}

	s.setupRouting()

	return s
}

func (s *server) parseAddress(w http.ResponseWriter, raw string) (mooring.Address, bool) {
	addr, err := mooring.ParseHexAddress(raw)
	if err != nil {
		jsonhttp.BadRequest(w, errInvalidAddress.Error())
		return mooring.ZeroAddress, false
	}
	return addr, true
}

// respondError maps a classified engine error onto an HTTP status.
func (s *server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mooring.ErrStructural), errors.Is(err, mooring.ErrSignature):
		jsonhttp.BadRequest(w, err.Error())
	case errors.Is(err, mooring.ErrAuthorization):
		jsonhttp.Forbidden(w, err.Error())
	case errors.Is(err, mooring.ErrConsistency), errors.Is(err, mooring.ErrConflict):
		jsonhttp.Conflict(w, err.Error())
	case errors.Is(err, mooring.ErrDependencyMissing):
		jsonhttp.Respond(w, http.StatusFailedDependency, jsonhttp.StatusResponse{
			Message: err.Error(),
			Code:    http.StatusFailedDependency,
		})
	case errors.Is(err, mooring.ErrDependencyUnavailable):
		jsonhttp.ServiceUnavailable(w, err.Error())
	default:
		jsonhttp.InternalServerError(w, nil)
	}
}
