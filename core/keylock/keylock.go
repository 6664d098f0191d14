// Package keylock serializes work on sets of identifier keys. The
// accept path and the collector share one Locker, so an edge addition
// and a collection check on the same identifier cannot interleave.
package keylock

import (
	"sort"
	"sync"
)

// Locker hands out per-key mutexes on demand. Keys are always taken in
// sorted order so two callers touching overlapping key sets cannot
// deadlock.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*lock
}

type lock struct {
	sync.Mutex
	refs int
}

// New constructs an empty Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]*lock)}
}

// Lock acquires all given keys and returns the matching release
// function. Duplicate keys are collapsed. The release function is safe
// to call more than once.
func (l *Locker) Lock(keys ...string) (unlock func()) {
	seen := make(map[string]struct{}, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	held := make([]*lock, 0, len(ordered))
	for _, k := range ordered {
		l.mu.Lock()
		kl, ok := l.locks[k]
		if !ok {
			kl = &lock{}
			l.locks[k] = kl
		}
		kl.refs++
		l.mu.Unlock()

		kl.Lock()
		held = append(held, kl)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].Unlock()
			}
			l.mu.Lock()
			for _, k := range ordered {
				kl := l.locks[k]
				kl.refs--
				if kl.refs == 0 {
					delete(l.locks, k)
				}
			}
			l.mu.Unlock()
		})
	}
}
