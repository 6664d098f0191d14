// Package notifier fans out accept events to subscribers. Delivery is
// at-least-once per live subscription: each event is handed to a
// worker pool which retries failed endpoints a bounded number of
// times. Once a subscription is removed no further events are queued
// for it.
package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/mooring"
)

// Event describes one committed accept, addressed to one subscription.
type Event struct {
	// Subscription is the identifier the receiver subscribed to: an
	// object address, a lineage address or a recipient identity.
	Subscription mooring.Address
	// Object is the accepted object that triggered the event.
	Object mooring.Address
	Kind   mooring.Kind
}

// Endpoint receives events for a subscription. Implementations are a
// websocket session or a webhook target; the caller that registered
// the endpoint owns its lifecycle.
type Endpoint interface {
	// ID distinguishes endpoints under the same subscription.
	ID() string
	Notify(ctx context.Context, e Event) error
}

type delivery struct {
	endpoint Endpoint
	event    Event
}

// Options configures the delivery pool.
type Options struct {
	Workers       int
	Retries       int
	RetryInterval time.Duration
	QueueSize     int
}

// Notifier is safe for concurrent use.
type Notifier struct {
	mu   sync.RWMutex
	subs map[string]map[string]Endpoint

	queue   chan delivery
	quit    chan struct{}
	wg      sync.WaitGroup
	opts    Options
	metrics metrics
	logger  logging.Logger
}

// New starts a Notifier and its delivery workers.
func New(logger logging.Logger, opts Options) *Notifier {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 100 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	n := &Notifier{
		subs:    make(map[string]map[string]Endpoint),
		queue:   make(chan delivery, opts.QueueSize),
		quit:    make(chan struct{}),
		opts:    opts,
		metrics: newMetrics(),
		logger:  logger,
	}
	for i := 0; i < opts.Workers; i++ {
		n.wg.Add(1)
		go n.worker()
	}
	return n
}

// Subscribe registers an endpoint under an identifier. Registering the
// same endpoint ID again replaces the previous endpoint.
func (n *Notifier) Subscribe(addr mooring.Address, ep Endpoint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	k := addr.ByteString()
	if _, ok := n.subs[k]; !ok {
		n.subs[k] = make(map[string]Endpoint)
	}
	n.subs[k][ep.ID()] = ep
	n.metrics.ActiveSubscriptions.Inc()
}

// Unsubscribe removes one endpoint from an identifier. Events already
// queued may still be delivered; nothing new is queued afterwards.
func (n *Notifier) Unsubscribe(addr mooring.Address, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	k := addr.ByteString()
	if eps, ok := n.subs[k]; ok {
		if _, ok := eps[id]; ok {
			delete(eps, id)
			n.metrics.ActiveSubscriptions.Dec()
		}
		if len(eps) == 0 {
			delete(n.subs, k)
		}
	}
}

// Drop removes every subscription on an identifier. Called when the
// identifier leaves the store.
func (n *Notifier) Drop(addr mooring.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	k := addr.ByteString()
	if eps, ok := n.subs[k]; ok {
		n.metrics.ActiveSubscriptions.Sub(float64(len(eps)))
		delete(n.subs, k)
	}
}

// Publish queues the accept of object for every endpoint subscribed to
// any of the given identifiers. Publish never blocks the pipeline: if
// the queue is full the event is counted as dropped.
func (n *Notifier) Publish(object mooring.Address, kind mooring.Kind, subscriptions ...mooring.Address) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, sub := range subscriptions {
		eps := n.subs[sub.ByteString()]
		if len(eps) == 0 {
			continue
		}
		e := Event{Subscription: sub, Object: object, Kind: kind}
		for _, ep := range eps {
			select {
			case n.queue <- delivery{endpoint: ep, event: e}:
				n.metrics.EventsQueued.Inc()
			default:
				n.metrics.EventsDropped.Inc()
				n.logger.Warningf("notifier: queue full, dropping event for %s", sub)
			}
		}
	}
}

func (n *Notifier) worker() {
	defer n.wg.Done()
	for {
		select {
		case d := <-n.queue:
			n.deliver(d)
		case <-n.quit:
			// Drain what is already queued before stopping.
			for {
				select {
				case d := <-n.queue:
					n.deliver(d)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) deliver(d delivery) {
	var err error
	for attempt := 0; attempt < n.opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(n.opts.RetryInterval):
			case <-n.quit:
				return
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = d.endpoint.Notify(ctx, d.event)
		cancel()
		if err == nil {
			n.metrics.EventsDelivered.Inc()
			return
		}
	}
	n.metrics.DeliveryFailures.Inc()
	n.logger.Debugf("notifier: delivery to %s failed: %v", d.endpoint.ID(), err)
}

// Close stops the delivery workers after draining the queue.
func (n *Notifier) Close() error {
	close(n.quit)
	n.wg.Wait()
	return nil
}
