// Package pipeline sequences the accept path: validation, consistency
// checking, authorization, atomic commit, notification and collection.
// Every submission ends in exactly one outcome: accepted, already
// known, or rejected with a classified error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lodeworks/mooring/core/check"
	"github.com/lodeworks/mooring/core/collector"
	"github.com/lodeworks/mooring/core/keylock"
	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/notifier"
	"github.com/lodeworks/mooring/core/object"
	"github.com/lodeworks/mooring/core/refindex"
	"github.com/lodeworks/mooring/core/registry"
	"github.com/lodeworks/mooring/core/replicator"
	"github.com/lodeworks/mooring/core/storage"
	"github.com/lodeworks/mooring/core/tracer"
	"github.com/lodeworks/mooring/core/validator"
)

// pushTimeout bounds the detached replication push after an accept.
const pushTimeout = 30 * time.Second

// Receipt reports the outcome of an accepted submission.
type Receipt struct {
	Address mooring.Address
	Kind    mooring.Kind
	// Duplicate is set when the object was already stored; the
	// submission had no effect.
	Duplicate bool
}

// Options configures the pipeline.
type Options struct {
	check.Options
	// PushOnAccept offers every newly accepted object to remote
	// replicas.
	PushOnAccept bool
}

// Pipeline is the engine facade: submissions, reads and subscriptions
// all go through it.
type Pipeline struct {
	validator  *validator.Validator
	checker    *check.Checker
	guard      *check.Guard
	store      storage.Storer
	index      *refindex.Index
	registry   *registry.Registry
	notifier   *notifier.Notifier
	collector  *collector.Collector
	replicator replicator.Interface
	locks      *keylock.Locker
	opts       Options
	tracer     *tracer.Tracer
	metrics    metrics
	logger     logging.Logger
}

// New wires the pipeline. locks must be the Locker the collector was
// built over. notifier and replicator may be nil; tracer may be nil
// for untraced operation.
func New(
	store storage.Storer,
	index *refindex.Index,
	reg *registry.Registry,
	n *notifier.Notifier,
	c *collector.Collector,
	r replicator.Interface,
	locks *keylock.Locker,
	opts Options,
	tr *tracer.Tracer,
	logger logging.Logger,
) *Pipeline {
	return &Pipeline{
		validator:  validator.New(),
		checker:    check.NewChecker(store, reg, opts.Options, logger),
		guard:      check.NewGuard(store, reg, r, opts.Options, logger),
		store:      store,
		index:      index,
		registry:   reg,
		notifier:   n,
		collector:  c,
		replicator: r,
		locks:      locks,
		opts:       opts,
		tracer:     tr,
		metrics:    newMetrics(),
		logger:     logger,
	}
}

// Submit runs one submission through the full accept path.
func (p *Pipeline) Submit(ctx context.Context, data []byte) (*Receipt, error) {
	span, logger, ctx := p.tracer.StartSpanFromContext(ctx, "pipeline-submit", p.logger)
	defer span.Finish()

	p.metrics.TotalSubmitted.Inc()

	o, err := p.validator.Validate(data)
	if err != nil {
		p.metrics.TotalRejected.Inc()
		return nil, err
	}
	addr := o.Address()

	unlock := p.locks.Lock(p.lockKeys(o)...)
	defer unlock()

	// Byte-identical resubmission is idempotent. A different signature
	// over the same plaintext hashes to the same identifier; the first
	// stored encoding wins.
	if _, err := p.store.Get(ctx, addr); err == nil {
		p.metrics.TotalDuplicates.Inc()
		logger.Debugf("pipeline: duplicate submission of %s %s", o.Kind(), addr)
		return &Receipt{Address: addr, Kind: o.Kind(), Duplicate: true}, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}

	if err := p.checker.Check(ctx, o); err != nil {
		p.metrics.TotalRejected.Inc()
		return nil, err
	}
	deps, err := p.guard.Authorize(ctx, o)
	if err != nil {
		p.metrics.TotalRejected.Inc()
		return nil, err
	}

	subscriptions, seeds, err := p.commit(ctx, o, data, deps)
	if errors.Is(err, mooring.ErrConflict) {
		// The address was written behind our duplicate check; the
		// losing submission is retried once against fresh state.
		if _, gerr := p.store.Get(ctx, addr); gerr == nil {
			p.metrics.TotalDuplicates.Inc()
			return &Receipt{Address: addr, Kind: o.Kind(), Duplicate: true}, nil
		}
		subscriptions, seeds, err = p.commit(ctx, o, data, deps)
	}
	if err != nil {
		return nil, err
	}
	p.metrics.TotalAccepted.Inc()
	logger.Debugf("pipeline: accepted %s %s", o.Kind(), addr)

	unlock()

	if p.notifier != nil {
		p.notifier.Publish(addr, o.Kind(), subscriptions...)
	}
	if len(seeds) > 0 {
		removed, err := p.collector.Collect(ctx, seeds...)
		if err != nil {
			logger.Errorf("pipeline: collection after %s: %v", addr, err)
		}
		for _, r := range removed {
			if p.notifier != nil {
				p.notifier.Drop(r)
			}
		}
	}
	if p.opts.PushOnAccept && p.replicator != nil {
		p.pushDetached(addr)
	}

	return &Receipt{Address: addr, Kind: o.Kind()}, nil
}

// lockKeys returns the identifiers a submission mutates. The lineage
// key serializes frame updates, the target key serializes retraction
// against concurrent reads of the target.
func (p *Pipeline) lockKeys(o object.Object) []string {
	keys := []string{o.Address().ByteString()}
	switch v := o.(type) {
	case *object.Frame:
		keys = append(keys, v.Lineage().ByteString())
	case *object.StaticBinding:
		keys = append(keys, v.Target().ByteString())
	case *object.Debinding:
		keys = append(keys, v.Target().ByteString())
	}
	return keys
}

// commit writes the object and applies its graph effects. It returns
// the identifiers to notify and the collection seeds released by a
// retraction.
func (p *Pipeline) commit(ctx context.Context, o object.Object, data []byte, deps []*storage.Item) (subscriptions, seeds []mooring.Address, err error) {
	for _, dep := range deps {
		if err := p.store.Put(ctx, dep); err != nil && !errors.Is(err, storage.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: %v", mooring.ErrStorage, err)
		}
	}
	item := &storage.Item{
		Address: o.Address(),
		Kind:    o.Kind(),
		Author:  o.Author(),
		Data:    data,
	}
	if err := p.store.Put(ctx, item); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, nil, fmt.Errorf("%w: %v", mooring.ErrConflict, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}

	addr := o.Address()
	subscriptions = []mooring.Address{addr}

	switch v := o.(type) {
	case *object.StaticBinding:
		p.index.AddEdge(addr, addr)
		p.index.AddEdge(v.Target(), addr)
	case *object.Frame:
		subscriptions = append(subscriptions, v.Lineage())
		seeds = p.commitFrame(v)
	case *object.Debinding:
		subscriptions = append(subscriptions, v.Target())
		seeds, err = p.commitDebinding(ctx, v)
		if err != nil {
			return nil, nil, err
		}
	case *object.Request:
		subscriptions = append(subscriptions, v.Recipient())
		p.registry.AddRequest(v.Recipient(), addr)
	}
	return subscriptions, seeds, nil
}

func (p *Pipeline) commitFrame(f *object.Frame) (seeds []mooring.Address) {
	lineage := f.Lineage()
	addr := f.Address()

	head, ok := p.registry.Head(lineage)
	if ok && f.Counter() < head.Counter {
		// Superseded frame retained as recorded history. It holds no
		// edges at all, so it neither pins its target nor survives the
		// next integrity sweep.
		return nil
	}

	p.index.AddEdge(f.Target(), addr)
	p.index.AddEdge(addr, lineage)
	retained := make(map[string]struct{}, len(f.History())+1)
	retained[addr.ByteString()] = struct{}{}
	for _, h := range f.History() {
		p.index.AddEdge(h, lineage)
		retained[h.ByteString()] = struct{}{}
	}
	if !ok {
		p.index.AddEdge(lineage, lineage)
	} else {
		for _, prior := range append([]mooring.Address{head.Frame}, head.History...) {
			if _, keep := retained[prior.ByteString()]; keep {
				continue
			}
			p.index.RemoveEdge(prior, lineage)
			seeds = append(seeds, prior)
		}
	}
	p.registry.SetHead(lineage, registry.Head{
		Frame:   addr,
		Counter: f.Counter(),
		Author:  f.Author(),
		History: f.History(),
	})
	return seeds
}

func (p *Pipeline) commitDebinding(ctx context.Context, d *object.Debinding) ([]mooring.Address, error) {
	target := d.Target()
	p.registry.SetDebinding(target, d.Address())

	item, err := p.store.Get(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}
	seeds := []mooring.Address{target}
	switch item.Kind {
	case mooring.KindStaticBinding:
		p.index.RemoveEdge(target, target)
	case mooring.KindDynamicFrame:
		o, err := object.Unmarshal(item.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", mooring.ErrStorage, err)
		}
		f := o.(*object.Frame)
		lineage := f.Lineage()
		p.index.RemoveEdge(target, lineage)
		if head, ok := p.registry.Head(lineage); ok && head.Frame.Equal(target) {
			// Retracting the live frame tears down the whole lineage
			// and tombstones it against new first frames.
			p.index.RemoveEdge(lineage, lineage)
			p.registry.DropLineage(lineage)
			p.registry.SetDebinding(lineage, d.Address())
			seeds = append(seeds, lineage)
		}
	}
	return seeds, nil
}

func (p *Pipeline) pushDetached(addr mooring.Address) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		item, err := p.store.Get(ctx, addr)
		if err != nil {
			return
		}
		if err := p.replicator.Push(ctx, item); err != nil {
			p.logger.Debugf("pipeline: push %s: %v", addr, err)
		}
	}()
}
