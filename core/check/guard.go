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

// Fetcher retrieves canonical object bytes from remote replicas.
type Fetcher interface {
	Fetch(ctx context.Context, addr mooring.Address) ([]byte, error)
}

// Guard enforces identity and ownership rules. When an author identity
// is not stored locally it asks the fetcher for it; resolved identities
// are returned to the caller for commit alongside the candidate.
type Guard struct {
	store    storage.Getter
	registry *registry.Registry
	fetcher  Fetcher
	opts     Options
	metrics  guardMetrics
	logger   logging.Logger
}

// NewGuard constructs a Guard. fetcher may be nil, in which case
// missing identities reject the candidate outright.
func NewGuard(store storage.Getter, reg *registry.Registry, fetcher Fetcher, opts Options, logger logging.Logger) *Guard {
	return &Guard{
		store:    store,
		registry: reg,
		fetcher:  fetcher,
		opts:     opts,
		metrics:  newGuardMetrics(),
		logger:   logger,
	}
}

// Authorize judges the candidate's right to enter the store. It
// returns any fetched dependency items that must be committed in the
// same transaction as the candidate.
func (g *Guard) Authorize(ctx context.Context, o object.Object) (deps []*storage.Item, err error) {
	defer func() {
		if err != nil {
			g.metrics.AuthorizationFailures.Inc()
		}
	}()

	switch v := o.(type) {
	case *object.Identity:
		// Identities are self-certifying.
		return nil, nil
	case *object.Container:
		return g.resolveIdentity(ctx, v.Author())
	case *object.Request:
		return g.resolveIdentity(ctx, v.Recipient())
	case *object.StaticBinding:
		deps, err = g.resolveIdentity(ctx, v.Author())
		if err != nil {
			return nil, err
		}
		if g.opts.BindPolicy != nil {
			if perr := g.opts.BindPolicy(ctx, v.Author(), v.Target()); perr != nil {
				return nil, fmt.Errorf("%w: %v", mooring.ErrAuthorization, perr)
			}
		}
		return deps, nil
	case *object.Frame:
		deps, err = g.resolveIdentity(ctx, v.Author())
		if err != nil {
			return nil, err
		}
		if head, ok := g.registry.Head(v.Lineage()); ok && !head.Author.Equal(v.Author()) {
			return nil, fmt.Errorf("%w: lineage %s owned by %s", mooring.ErrAuthorization, v.Lineage(), head.Author)
		}
		return deps, nil
	case *object.Debinding:
		deps, err = g.resolveIdentity(ctx, v.Author())
		if err != nil {
			return nil, err
		}
		item, gerr := g.store.Get(ctx, v.Target())
		if gerr != nil {
			return nil, fmt.Errorf("%w: %v", mooring.ErrStorage, gerr)
		}
		if !item.Author.Equal(v.Author()) {
			return nil, fmt.Errorf("%w: target %s authored by %s", mooring.ErrAuthorization, v.Target(), item.Author)
		}
		return deps, nil
	default:
		return nil, fmt.Errorf("%w: unsupported object %T", mooring.ErrStructural, o)
	}
}

// resolveIdentity ensures the given identity is stored or fetchable.
func (g *Guard) resolveIdentity(ctx context.Context, author mooring.Address) ([]*storage.Item, error) {
	item, err := g.store.Get(ctx, author)
	if err == nil {
		if item.Kind != mooring.KindIdentity {
			return nil, fmt.Errorf("%w: %s is a %s, not an identity", mooring.ErrAuthorization, author, item.Kind)
		}
		return nil, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", mooring.ErrStorage, err)
	}

	if g.fetcher == nil {
		return nil, fmt.Errorf("%w: identity %s", mooring.ErrDependencyMissing, author)
	}
	g.metrics.DependencyFetches.Inc()
	data, err := g.fetcher.Fetch(ctx, author)
	if err != nil {
		g.metrics.DependencyFetchFailures.Inc()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: identity %s", mooring.ErrDependencyMissing, author)
		}
		return nil, fmt.Errorf("%w: identity %s: %v", mooring.ErrDependencyUnavailable, author, err)
	}
	o, err := object.Unmarshal(data)
	if err != nil {
		g.metrics.DependencyFetchFailures.Inc()
		return nil, fmt.Errorf("%w: identity %s: %v", mooring.ErrDependencyUnavailable, author, err)
	}
	id, ok := o.(*object.Identity)
	if !ok || !id.Address().Equal(author) {
		g.metrics.DependencyFetchFailures.Inc()
		return nil, fmt.Errorf("%w: replica returned wrong object for %s", mooring.ErrDependencyUnavailable, author)
	}
	g.logger.Debugf("check: resolved identity %s from replica", author)
	return []*storage.Item{{
		Address: id.Address(),
		Kind:    mooring.KindIdentity,
		Author:  id.Address(),
		Data:    data,
	}}, nil
}
