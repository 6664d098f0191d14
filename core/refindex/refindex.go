// Package refindex implements the keep-alive edge index: for every
// identifier it records which identifiers currently depend on it, and
// for every holder which identifiers it keeps alive. Pure in-memory
// data structure with no I/O; durability comes from rebuilding it out
// of the store at startup.
package refindex

import (
	"sync"

	"github.com/lodeworks/mooring/core/mooring"
)

// Index is a bidirectional identifier-to-identifier edge set. All
// methods are safe for concurrent use.
type Index struct {
	mu sync.RWMutex
	// inbound maps a target to the set of holders keeping it alive.
	inbound map[string]map[string]struct{}
	// outbound maps a holder to the set of targets it keeps alive.
	outbound map[string]map[string]struct{}
}

// New constructs an empty Index.
func New() *Index {
	return &Index{
		inbound:  make(map[string]map[string]struct{}),
		outbound: make(map[string]map[string]struct{}),
	}
}

// AddEdge records that holder keeps target alive. Adding an existing
// edge is a no-op.
func (x *Index) AddEdge(target, holder mooring.Address) {
	x.mu.Lock()
	defer x.mu.Unlock()

	tk, hk := target.ByteString(), holder.ByteString()
	if _, ok := x.inbound[tk]; !ok {
		x.inbound[tk] = make(map[string]struct{})
	}
	x.inbound[tk][hk] = struct{}{}
	if _, ok := x.outbound[hk]; !ok {
		x.outbound[hk] = make(map[string]struct{})
	}
	x.outbound[hk][tk] = struct{}{}
}

// RemoveEdge removes the edge holder→target. Removing an absent edge
// is a no-op, never an error, so replayed retractions are harmless.
func (x *Index) RemoveEdge(target, holder mooring.Address) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeEdge(target.ByteString(), holder.ByteString())
}

func (x *Index) removeEdge(tk, hk string) {
	if hs, ok := x.inbound[tk]; ok {
		delete(hs, hk)
		if len(hs) == 0 {
			delete(x.inbound, tk)
		}
	}
	if ts, ok := x.outbound[hk]; ok {
		delete(ts, tk)
		if len(ts) == 0 {
			delete(x.outbound, hk)
		}
	}
}

// HasHolders reports whether any inbound keep-alive edge exists for
// the given identifier.
func (x *Index) HasHolders(target mooring.Address) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.inbound[target.ByteString()]) > 0
}

// Holders returns the identifiers currently keeping target alive.
func (x *Index) Holders(target mooring.Address) []mooring.Address {
	x.mu.RLock()
	defer x.mu.RUnlock()

	hs := x.inbound[target.ByteString()]
	if len(hs) == 0 {
		return nil
	}
	out := make([]mooring.Address, 0, len(hs))
	for hk := range hs {
		out = append(out, mooring.NewAddress([]byte(hk)))
	}
	return out
}

// Targets returns the identifiers the holder keeps alive.
func (x *Index) Targets(holder mooring.Address) []mooring.Address {
	x.mu.RLock()
	defer x.mu.RUnlock()

	ts := x.outbound[holder.ByteString()]
	if len(ts) == 0 {
		return nil
	}
	out := make([]mooring.Address, 0, len(ts))
	for tk := range ts {
		out = append(out, mooring.NewAddress([]byte(tk)))
	}
	return out
}

// Drop removes every edge originating from holder and returns the
// targets whose inbound sets changed, so the caller can re-check them
// for collection. Used when the holder's own object is removed.
func (x *Index) Drop(holder mooring.Address) []mooring.Address {
	x.mu.Lock()
	defer x.mu.Unlock()

	hk := holder.ByteString()
	ts := x.outbound[hk]
	if len(ts) == 0 {
		return nil
	}
	affected := make([]mooring.Address, 0, len(ts))
	for tk := range ts {
		affected = append(affected, mooring.NewAddress([]byte(tk)))
	}
	for _, target := range affected {
		x.removeEdge(target.ByteString(), hk)
	}
	return affected
}

// Len returns the number of identifiers with at least one inbound edge.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.inbound)
}
