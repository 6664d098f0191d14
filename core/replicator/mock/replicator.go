// Package mock provides a configurable in-memory replicator for
// tests.
package mock

import (
	"context"
	"sync"

	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/replicator"
	"github.com/lodeworks/mooring/core/storage"
)

// Option configures the mock replicator.
type Option func(*Replicator)

// WithObjects preloads objects the remote side can serve.
func WithObjects(objects map[string][]byte) Option {
	return func(r *Replicator) {
		for k, v := range objects {
			r.objects[k] = v
		}
	}
}

// WithFetchError fails every fetch with the given error.
func WithFetchError(err error) Option {
	return func(r *Replicator) { r.fetchErr = err }
}

// WithPushError fails every push with the given error.
func WithPushError(err error) Option {
	return func(r *Replicator) { r.pushErr = err }
}

// Replicator records pushes and serves preloaded objects.
type Replicator struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pushed   []mooring.Address
	fetchErr error
	pushErr  error
}

// New constructs the mock replicator.
func New(opts ...Option) *Replicator {
	r := &Replicator{objects: make(map[string][]byte)}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ replicator.Interface = (*Replicator)(nil)

// Add makes an object fetchable.
func (r *Replicator) Add(addr mooring.Address, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[addr.ByteString()] = data
}

func (r *Replicator) Fetch(_ context.Context, addr mooring.Address) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	data, ok := r.objects[addr.ByteString()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte{}, data...), nil
}

func (r *Replicator) Push(_ context.Context, item *storage.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pushErr != nil {
		return r.pushErr
	}
	r.pushed = append(r.pushed, item.Address)
	return nil
}

// Pushed returns the addresses pushed so far.
func (r *Replicator) Pushed() []mooring.Address {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mooring.Address{}, r.pushed...)
}
