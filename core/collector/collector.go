// Package collector reclaims objects that no longer have a keep-alive
// edge. Collection is iterative: removing one object releases its
// outgoing edges, which may strand further objects, which are examined
// in turn. Identities, debindings and requests are never collected;
// debindings persist as retraction tombstones and requests leave the
// store only through acknowledgement.
package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/lodeworks/mooring/core/keylock"
	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/object"
	"github.com/lodeworks/mooring/core/refindex"
	"github.com/lodeworks/mooring/core/registry"
	"github.com/lodeworks/mooring/core/storage"
)

// Dropper removes all subscriptions on an identifier.
type Dropper interface {
	Drop(addr mooring.Address)
}

// Options configures collection behavior.
type Options struct {
	// CollectOrphans removes containers with no inbound edge during
	// the reconcile sweep. Disabled by default: unbound containers
	// are legal and may be bound later.
	CollectOrphans bool
}

// Collector walks the reference graph and removes unreferenced
// objects.
type Collector struct {
	store    storage.Storer
	index    *refindex.Index
	registry *registry.Registry
	subs     Dropper
	locks    *keylock.Locker
	opts     Options
	metrics  metrics
	logger   logging.Logger
}

// New constructs a Collector. locks must be the same Locker the accept
// path serializes commits under. subs may be nil.
func New(store storage.Storer, index *refindex.Index, reg *registry.Registry, subs Dropper, locks *keylock.Locker, opts Options, logger logging.Logger) *Collector {
	return &Collector{
		store:    store,
		index:    index,
		registry: reg,
		subs:     subs,
		locks:    locks,
		opts:     opts,
		metrics:  newMetrics(),
		logger:   logger,
	}
}

// Collect examines the given identifiers and removes every one that
// has no remaining inbound edge, cascading through the edges each
// removal releases. It returns the identifiers actually removed.
// Per-object failures are aggregated; the cascade keeps going.
func (c *Collector) Collect(ctx context.Context, seeds ...mooring.Address) ([]mooring.Address, error) {
	var (
		removed  []mooring.Address
		combined error
		visited  = make(map[string]struct{})
		worklist = append([]mooring.Address{}, seeds...)
	)
	for len(worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return removed, multierror.Append(combined, err).ErrorOrNil()
		}
		addr := worklist[0]
		worklist = worklist[1:]

		if _, ok := visited[addr.ByteString()]; ok {
			continue
		}
		visited[addr.ByteString()] = struct{}{}

		released, collected, err := c.examine(ctx, addr)
		if err != nil {
			combined = multierror.Append(combined, err)
			continue
		}
		if collected {
			removed = append(removed, addr)
		}
		worklist = append(worklist, released...)
	}
	return removed, combined
}

// examine judges one candidate under its identifier lock, so a commit
// adding an edge to it cannot interleave between the inbound-edge
// check and the delete. It returns the identifiers released by a
// removal.
func (c *Collector) examine(ctx context.Context, addr mooring.Address) (released []mooring.Address, collected bool, err error) {
	unlock := c.locks.Lock(addr.ByteString())
	defer unlock()

	if c.index.HasHolders(addr) {
		return nil, false, nil
	}

	item, err := c.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// A lineage root has no stored object of its own but may
			// still hold edges that need releasing.
			return c.index.Drop(addr), false, nil
		}
		return nil, false, fmt.Errorf("collect %s: %w", addr, err)
	}

	switch item.Kind {
	case mooring.KindIdentity, mooring.KindDebinding, mooring.KindRequest:
		return nil, false, nil
	}

	if err := c.remove(ctx, item); err != nil {
		return nil, false, err
	}
	return c.index.Drop(addr), true, nil
}

func (c *Collector) remove(ctx context.Context, item *storage.Item) error {
	if err := c.store.Delete(ctx, item.Address); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("collect %s: %w", item.Address, err)
	}
	if item.Kind == mooring.KindDynamicFrame {
		if f, err := object.Unmarshal(item.Data); err == nil {
			if frame, ok := f.(*object.Frame); ok {
				if head, ok := c.registry.Head(frame.Lineage()); ok && head.Frame.Equal(item.Address) {
					c.registry.DropLineage(frame.Lineage())
				}
			}
		}
	}
	if c.subs != nil {
		c.subs.Drop(item.Address)
	}
	c.metrics.ObjectsCollected.Inc()
	c.logger.Debugf("collector: removed %s object %s", item.Kind, item.Address)
	return nil
}
