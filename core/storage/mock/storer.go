// Package mock provides an in-memory implementation of storage.Storer
// for use in tests.
package mock

import (
	"bytes"
	"context"
	"sync"

	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/storage"
)

type mockStorer struct {
	mu    sync.Mutex
	items map[string]*storage.Item
	seq   uint64

	putErr error
	getErr error
}

// Option configures the mock storer.
type Option func(*mockStorer)

// WithPutError makes every Put fail with err.
func WithPutError(err error) Option {
	return func(m *mockStorer) { m.putErr = err }
}

// WithGetError makes every Get fail with err.
func WithGetError(err error) Option {
	return func(m *mockStorer) { m.getErr = err }
}

// NewStorer constructs an empty in-memory storer.
func NewStorer(opts ...Option) storage.Storer {
	m := &mockStorer{
		items: make(map[string]*storage.Item),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *mockStorer) Get(_ context.Context, addr mooring.Address) (*storage.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[addr.ByteString()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return item, nil
}

func (m *mockStorer) Has(_ context.Context, addr mooring.Address) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[addr.ByteString()]
	return ok, nil
}

func (m *mockStorer) Put(_ context.Context, item *storage.Item) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.items[item.Address.ByteString()]; ok {
		if !bytes.Equal(existing.Data, item.Data) {
			return storage.ErrConflict
		}
		item.Seq = existing.Seq
		return nil
	}
	m.seq++
	stored := *item
	stored.Seq = m.seq
	item.Seq = m.seq
	m.items[item.Address.ByteString()] = &stored
	return nil
}

func (m *mockStorer) Delete(_ context.Context, addr mooring.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[addr.ByteString()]; !ok {
		return storage.ErrNotFound
	}
	delete(m.items, addr.ByteString())
	return nil
}

func (m *mockStorer) Iterate(_ context.Context, fn func(*storage.Item) (bool, error)) error {
	m.mu.Lock()
	items := make([]*storage.Item, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	m.mu.Unlock()

	for _, item := range items {
		stop, err := fn(item)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (m *mockStorer) Close() error { return nil }
