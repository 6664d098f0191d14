// Package registry tracks the derived graph state the rule checks
// need: the live head of every dynamic lineage, which objects have
// been retracted by a debinding, and the per-recipient request
// mailboxes. It holds no object content and is rebuilt from the store
// at startup.
package registry

import (
	"sync"

	"github.com/lodeworks/mooring/core/mooring"
)

// Head describes the live frame of a dynamic lineage.
type Head struct {
	Frame   mooring.Address
	Counter uint64
	Author  mooring.Address
	// History is the retained-history list declared by the live frame.
	History []mooring.Address
}

// Registry is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex
	// heads maps lineage address to its live frame.
	heads map[string]Head
	// debindings maps a retracted object to the debinding that
	// retracted it. Entries persist as tombstones so a retracted
	// binding cannot be replayed.
	debindings map[string]mooring.Address
	// mailboxes maps a recipient identity to its pending requests.
	mailboxes map[string]map[string]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		heads:      make(map[string]Head),
		debindings: make(map[string]mooring.Address),
		mailboxes:  make(map[string]map[string]struct{}),
	}
}

// SetHead records the live frame of a lineage, replacing any previous
// head.
func (r *Registry) SetHead(lineage mooring.Address, head Head) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heads[lineage.ByteString()] = head
}

// Head returns the live frame of a lineage.
func (r *Registry) Head(lineage mooring.Address) (Head, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.heads[lineage.ByteString()]
	return h, ok
}

// DropLineage forgets a lineage's head. Used when the lineage is torn
// down by a debinding of its live frame.
func (r *Registry) DropLineage(lineage mooring.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.heads, lineage.ByteString())
}

// SetDebinding records that debinding retracted target.
func (r *Registry) SetDebinding(target, debinding mooring.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debindings[target.ByteString()] = debinding
}

// Debinding returns the debinding that retracted target, if any.
func (r *Registry) Debinding(target mooring.Address) (mooring.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.debindings[target.ByteString()]
	return d, ok
}

// DropDebinding forgets the retraction record for target. Used only
// when the debinding object itself leaves the store.
func (r *Registry) DropDebinding(target mooring.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.debindings, target.ByteString())
}

// AddRequest files a pending request in the recipient's mailbox.
func (r *Registry) AddRequest(recipient, request mooring.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := recipient.ByteString()
	if _, ok := r.mailboxes[k]; !ok {
		r.mailboxes[k] = make(map[string]struct{})
	}
	r.mailboxes[k][request.ByteString()] = struct{}{}
}

// RemoveRequest drops a request from the recipient's mailbox. Removing
// an absent request is a no-op.
func (r *Registry) RemoveRequest(recipient, request mooring.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := recipient.ByteString()
	if box, ok := r.mailboxes[k]; ok {
		delete(box, request.ByteString())
		if len(box) == 0 {
			delete(r.mailboxes, k)
		}
	}
}

// Requests lists the pending requests of a recipient.
func (r *Registry) Requests(recipient mooring.Address) []mooring.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	box := r.mailboxes[recipient.ByteString()]
	if len(box) == 0 {
		return nil
	}
	out := make([]mooring.Address, 0, len(box))
	for k := range box {
		out = append(out, mooring.NewAddress([]byte(k)))
	}
	return out
}
