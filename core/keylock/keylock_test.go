package keylock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/lodeworks/mooring/core/keylock"
)

func TestOverlappingKeysExclude(t *testing.T) {
	l := keylock.New()
	unlock := l.Lock("a", "b")

	acquired := make(chan struct{})
	go func() {
		inner := l.Lock("b", "c")
		close(acquired)
		inner()
	}()

	select {
	case <-acquired:
		t.Fatal("overlapping key acquired while held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for lock handover")
	}

	// Releasing again is a no-op.
	unlock()
}

func TestSerializedCounter(t *testing.T) {
	l := keylock.New()
	var (
		wg sync.WaitGroup
		n  int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("n")
			n++
			unlock()
		}()
	}
	wg.Wait()
	if n != 32 {
		t.Fatalf("got %d, want 32", n)
	}
}
