// Package check implements the rule stages that run between structural
// validation and commit: the consistency checker, which judges a
// candidate against the current graph state, and the authorization
// guard, which judges it against identity ownership.
package check

import (
	"context"
	"errors"
	"fmt"

	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/object"
	"github.com/lodeworks/mooring/core/registry"
	"github.com/lodeworks/mooring/core/storage"
)

// Options configures rule behavior that the engine operator may vary.
type Options struct {
	// RetainSuperseded accepts frames whose counter is below the live
	// head as recorded history instead of rejecting them.
	RetainSuperseded bool
	// BindPolicy, when set, may veto a static binding before commit.
	// A non-nil error rejects the binding as unauthorized.
	BindPolicy func(ctx context.Context, author, target mooring.Address) error
}

// Checker enforces graph consistency for candidate objects. It must be
// consulted under the same serialization the commit runs under, so the
// state it reads cannot go stale before the write.
type Checker struct {
	store    storage.Getter
	registry *registry.Registry
	opts     Options
	metrics  metrics
	logger   logging.Logger
}

// NewChecker constructs a Checker over the given store and registry.
func NewChecker(store storage.Getter, reg *registry.Registry, opts Options, logger logging.Logger) *Checker {
	return &Checker{
		store:    store,
		registry: reg,
		opts:     opts,
		metrics:  newMetrics(),
		logger:   logger,
	}
}

// Check validates a candidate against current graph state. The
// candidate is assumed to have passed structural and signature
// validation and to not already be stored byte-identically.
func (c *Checker) Check(ctx context.Context, o object.Object) error {
	var err error
	switch v := o.(type) {
	case *object.Identity, *object.Container, *object.Request:
		// No graph preconditions; identities and containers stand
		// alone, requests are gated by the guard.
	case *object.StaticBinding:
		err = c.checkStaticBinding(ctx, v)
	case *object.Frame:
		err = c.checkFrame(v)
	case *object.Debinding:
		err = c.checkDebinding(ctx, v)
	default:
		err = fmt.Errorf("%w: unsupported object %T", mooring.ErrStructural, o)
	}
	if err != nil {
		c.metrics.ConsistencyFailures.Inc()
	}
	return err
}

func (c *Checker) checkStaticBinding(ctx context.Context, b *object.StaticBinding) error {
	if b.Target().Equal(b.Address()) {
		return fmt.Errorf("%w: binding targets itself", mooring.ErrConsistency)
	}
	if d, ok := c.registry.Debinding(b.Address()); ok {
		return fmt.Errorf("%w: binding retracted by %s", mooring.ErrConsistency, d)
	}
	return c.checkTargetKind(ctx, b.Target())
}

func (c *Checker) checkFrame(f *object.Frame) error {
	lineage := f.Lineage()
	if f.Target().Equal(f.Address()) || f.Target().Equal(lineage) {
		return fmt.Errorf("%w: frame targets its own lineage", mooring.ErrConsistency)
	}
	if d, ok := c.registry.Debinding(lineage); ok {
		return fmt.Errorf("%w: lineage retracted by %s", mooring.ErrConsistency, d)
	}
	if d, ok := c.registry.Debinding(f.Address()); ok {
		return fmt.Errorf("%w: frame retracted by %s", mooring.ErrConsistency, d)
	}

	head, ok := c.registry.Head(lineage)
	if !ok {
		if len(f.History()) != 0 {
			return fmt.Errorf("%w: first frame of %s declares history", mooring.ErrConsistency, lineage)
		}
		return nil
	}
	switch {
	case f.Counter() == head.Counter:
		// Byte-identical resubmission is filtered out before this
		// stage, so an equal counter is a second, different frame.
		c.logger.Errorf("check: equivocation on lineage %s at counter %d: live frame %s, rival %s", lineage, f.Counter(), head.Frame, f.Address())
		return fmt.Errorf("%w: equivocating frame for %s at counter %d", mooring.ErrConflict, lineage, f.Counter())
	case f.Counter() < head.Counter:
		if !c.opts.RetainSuperseded {
			return fmt.Errorf("%w: frame counter %d behind live counter %d", mooring.ErrConsistency, f.Counter(), head.Counter)
		}
	}
	return nil
}

func (c *Checker) checkDebinding(ctx context.Context, d *object.Debinding) error {
	if d.Target().Equal(d.Address()) {
		return fmt.Errorf("%w: debinding targets itself", mooring.ErrConsistency)
	}
	if prior, ok := c.registry.Debinding(d.Target()); ok {
		return fmt.Errorf("%w: target already retracted by %s", mooring.ErrConsistency, prior)
	}
	item, err := c.store.Get(ctx, d.Target())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: debinding target %s not found", mooring.ErrConsistency, d.Target())
		}
		return fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}
	switch item.Kind {
	case mooring.KindStaticBinding, mooring.KindDynamicFrame:
	default:
		return fmt.Errorf("%w: cannot debind %s object %s", mooring.ErrConsistency, item.Kind, d.Target())
	}
	return nil
}

// checkTargetKind rejects bindings whose target is stored and of a
// kind that cannot legally be bound. Absent targets are allowed; the
// container may arrive after its binding.
func (c *Checker) checkTargetKind(ctx context.Context, target mooring.Address) error {
	item, err := c.store.Get(ctx, target)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}
	switch item.Kind {
	case mooring.KindContainer, mooring.KindDynamicFrame:
		return nil
	default:
		return fmt.Errorf("%w: cannot bind %s object %s", mooring.ErrConsistency, item.Kind, target)
	}
}
