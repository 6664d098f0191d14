// Package node wires the engine components into a runnable service:
// store, reference index, registry, notifier, collector, replicator,
// pipeline and the HTTP API.
package node

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/lodeworks/mooring/core/api"
	"github.com/lodeworks/mooring/core/check"
	"github.com/lodeworks/mooring/core/collector"
	"github.com/lodeworks/mooring/core/diskstore"
	"github.com/lodeworks/mooring/core/keylock"
	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/metrics"
	"github.com/lodeworks/mooring/core/notifier"
	"github.com/lodeworks/mooring/core/pipeline"
	"github.com/lodeworks/mooring/core/refindex"
	"github.com/lodeworks/mooring/core/registry"
	"github.com/lodeworks/mooring/core/replicator"
	"github.com/lodeworks/mooring/core/replicator/httppeer"
	"github.com/lodeworks/mooring/core/storage"
	"github.com/lodeworks/mooring/core/storage/mock"
	"github.com/lodeworks/mooring/core/tracer"
)

// Options configures a Node.
type Options struct {
	// DataDir holds the object database. Empty means an in-memory
	// store, useful for development.
	DataDir          string
	APIAddr          string
	Peers            []string
	PushOnAccept     bool
	RetainSuperseded bool
	CollectOrphans   bool
	TracingEnabled   bool
	TracingEndpoint  string
	TracingService   string
}

// Node is a running mooring service.
type Node struct {
	store        storage.Storer
	notifier     *notifier.Notifier
	engine       *pipeline.Pipeline
	apiServer    *http.Server
	apiAddr      string
	tracerCloser io.Closer
	logger       logging.Logger
	ready        int32
}

// New builds a Node, reconciles derived state from the store and
// starts serving the API.
func New(o Options, logger logging.Logger) (*Node, error) {
	n := &Node{logger: logger}

	tr, tracerCloser, err := tracer.NewTracer(&tracer.Options{
		Enabled:     o.TracingEnabled,
		Endpoint:    o.TracingEndpoint,
		ServiceName: o.TracingService,
	})
	if err != nil {
		return nil, fmt.Errorf("tracer: %w", err)
	}
	n.tracerCloser = tracerCloser

	if o.DataDir != "" {
		store, err := diskstore.New(o.DataDir, logger)
		if err != nil {
			return nil, fmt.Errorf("diskstore: %w", err)
		}
		n.store = store
	} else {
		logger.Warning("node: no data directory, objects will not persist")
		n.store = mock.NewStorer()
	}

	index := refindex.New()
	reg := registry.New()
	locks := keylock.New()
	n.notifier = notifier.New(logger, notifier.Options{})
	coll := collector.New(n.store, index, reg, n.notifier, locks, collector.Options{
		CollectOrphans: o.CollectOrphans,
	}, logger)

	var repl replicator.Interface
	var peerService *httppeer.Service
	if len(o.Peers) > 0 {
		peerService = httppeer.New(httppeer.Options{Peers: o.Peers}, tr, logger)
		repl = peerService
	} else {
		repl = replicator.NewNoop()
	}

	n.engine = pipeline.New(n.store, index, reg, n.notifier, coll, repl, locks, pipeline.Options{
		Options: check.Options{
			RetainSuperseded: o.RetainSuperseded,
		},
		PushOnAccept: o.PushOnAccept,
	}, tr, logger)

	reconcileStart := time.Now()
	if err := n.engine.Reconcile(context.Background()); err != nil {
		// Reconcile aggregates per-object problems; a partial rebuild
		// is still serviceable.
		logger.Errorf("node: reconcile: %v", err)
	}
	logger.Infof("node: reconcile finished in %v", time.Since(reconcileStart))
	atomic.StoreInt32(&n.ready, 1)

	promRegistry := prometheus.NewRegistry()
	for _, c := range []metrics.Collector{n.engine, coll, n.notifier} {
		registerMetrics(promRegistry, c, logger)
	}
	if peerService != nil {
		registerMetrics(promRegistry, peerService, logger)
	}
	if mc, ok := n.store.(metrics.Collector); ok {
		registerMetrics(promRegistry, mc, logger)
	}

	apiService := api.New(n.engine, promRegistry, func() bool {
		return atomic.LoadInt32(&n.ready) == 1
	}, logger, tr)
	registerMetrics(promRegistry, apiService, logger)

	listener, err := net.Listen("tcp", o.APIAddr)
	if err != nil {
		return nil, fmt.Errorf("api listener: %w", err)
	}
	n.apiAddr = listener.Addr().String()
	n.apiServer = &http.Server{
		Handler:           apiService,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		ErrorLog:          stdlog.New(logger.WriterLevel(logrus.DebugLevel), "", 0),
	}
	go func() {
		logger.Infof("node: api listening on %s", n.apiAddr)
		if err := n.apiServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Errorf("node: api server: %v", err)
		}
	}()

	return n, nil
}

func registerMetrics(r *prometheus.Registry, c metrics.Collector, logger logging.Logger) {
	for _, collector := range c.Metrics() {
		if err := r.Register(collector); err != nil {
			logger.Debugf("node: register metrics: %v", err)
		}
	}
}

// Engine exposes the pipeline, mainly for tests and embedding.
func (n *Node) Engine() *pipeline.Pipeline { return n.engine }

// Addr returns the bound API address.
func (n *Node) Addr() string { return n.apiAddr }

// Close shuts the node down: the API stops taking requests, the
// notifier drains, the store closes last.
func (n *Node) Close(ctx context.Context) error {
	var combined error

	atomic.StoreInt32(&n.ready, 0)
	if err := n.apiServer.Shutdown(ctx); err != nil {
		combined = multierror.Append(combined, fmt.Errorf("api shutdown: %w", err))
	}
	if err := n.notifier.Close(); err != nil {
		combined = multierror.Append(combined, fmt.Errorf("notifier: %w", err))
	}
	if err := n.store.Close(); err != nil {
		combined = multierror.Append(combined, fmt.Errorf("store: %w", err))
	}
	if n.tracerCloser != nil {
		if err := n.tracerCloser.Close(); err != nil {
			combined = multierror.Append(combined, fmt.Errorf("tracer: %w", err))
		}
	}
	return combined
}
