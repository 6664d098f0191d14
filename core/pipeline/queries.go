package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/notifier"
	"github.com/lodeworks/mooring/core/storage"
)

// Get returns a stored object. A lineage address resolves to its live
// frame.
func (p *Pipeline) Get(ctx context.Context, addr mooring.Address) (*storage.Item, error) {
	if head, ok := p.registry.Head(addr); ok {
		addr = head.Frame
	}
	item, err := p.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}
	return item, nil
}

// Has reports whether an object, or a lineage with a live frame, is
// known.
func (p *Pipeline) Has(ctx context.Context, addr mooring.Address) (bool, error) {
	if _, ok := p.registry.Head(addr); ok {
		return true, nil
	}
	return p.store.Has(ctx, addr)
}

// Holders lists the identifiers currently keeping addr alive.
func (p *Pipeline) Holders(addr mooring.Address) []mooring.Address {
	return p.index.Holders(addr)
}

// DebindingFor returns the debinding that retracted addr, if any.
func (p *Pipeline) DebindingFor(addr mooring.Address) (mooring.Address, bool) {
	return p.registry.Debinding(addr)
}

// Head returns the live frame and counter of a lineage.
func (p *Pipeline) Head(lineage mooring.Address) (frame mooring.Address, counter uint64, ok bool) {
	h, ok := p.registry.Head(lineage)
	if !ok {
		return mooring.ZeroAddress, 0, false
	}
	return h.Frame, h.Counter, true
}

// Requests lists the pending requests addressed to a recipient.
func (p *Pipeline) Requests(recipient mooring.Address) []mooring.Address {
	return p.registry.Requests(recipient)
}

// Ack consumes a delivered request: the stored object is removed and
// the mailbox entry cleared. Requests are the only objects a client
// can remove directly.
func (p *Pipeline) Ack(ctx context.Context, addr mooring.Address) error {
	unlock := p.locks.Lock(addr.ByteString())
	defer unlock()

	item, err := p.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}
	if item.Kind != mooring.KindRequest {
		return fmt.Errorf("%w: %s is a %s, not a request", mooring.ErrConsistency, addr, item.Kind)
	}
	if err := p.store.Delete(ctx, addr); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}
	p.registry.RemoveRequest(item.Author, addr)
	if p.notifier != nil {
		p.notifier.Drop(addr)
	}
	p.metrics.TotalAcked.Inc()
	return nil
}

// Subscribe registers an endpoint for accept events on an identifier.
func (p *Pipeline) Subscribe(addr mooring.Address, ep notifier.Endpoint) error {
	if p.notifier == nil {
		return errors.New("pipeline: notifications disabled")
	}
	p.notifier.Subscribe(addr, ep)
	return nil
}

// Unsubscribe removes an endpoint from an identifier.
func (p *Pipeline) Unsubscribe(addr mooring.Address, id string) {
	if p.notifier != nil {
		p.notifier.Unsubscribe(addr, id)
	}
}

// Reconcile rebuilds derived state from the store. Must run before
// the pipeline accepts submissions.
func (p *Pipeline) Reconcile(ctx context.Context) error {
	return p.collector.Reconcile(ctx)
}
