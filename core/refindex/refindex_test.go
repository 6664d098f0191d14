package refindex_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/refindex"
)

func addr(b byte) mooring.Address {
	buf := make([]byte, mooring.AddressSize)
	buf[0] = b
	return mooring.NewAddress(buf)
}

func TestAddRemoveEdge(t *testing.T) {
	x := refindex.New()
	target, holder := addr(1), addr(2)

	if x.HasHolders(target) {
		t.Fatal("fresh index has holders")
	}

	x.AddEdge(target, holder)
	if !x.HasHolders(target) {
		t.Fatal("edge not recorded")
	}
	// idempotent add
	x.AddEdge(target, holder)
	if got := len(x.Holders(target)); got != 1 {
		t.Fatalf("got %d holders, want 1", got)
	}

	x.RemoveEdge(target, holder)
	if x.HasHolders(target) {
		t.Fatal("edge not removed")
	}
	// removing an absent edge is a no-op
	x.RemoveEdge(target, holder)
	if x.Len() != 0 {
		t.Fatalf("index not empty, len %d", x.Len())
	}
}

func TestHoldersAndTargets(t *testing.T) {
	x := refindex.New()
	target := addr(1)
	h1, h2 := addr(2), addr(3)

	x.AddEdge(target, h1)
	x.AddEdge(target, h2)
	x.AddEdge(addr(4), h1)

	holders := x.Holders(target)
	sort.Slice(holders, func(i, j int) bool { return holders[i].String() < holders[j].String() })
	if len(holders) != 2 || !holders[0].Equal(h1) || !holders[1].Equal(h2) {
		t.Fatalf("unexpected holders %v", holders)
	}

	targets := x.Targets(h1)
	if len(targets) != 2 {
		t.Fatalf("got %d targets for holder, want 2", len(targets))
	}
}

func TestDrop(t *testing.T) {
	x := refindex.New()
	holder := addr(1)
	t1, t2 := addr(2), addr(3)
	other := addr(4)

	x.AddEdge(t1, holder)
	x.AddEdge(t2, holder)
	x.AddEdge(t1, other)

	affected := x.Drop(holder)
	if len(affected) != 2 {
		t.Fatalf("got %d affected targets, want 2", len(affected))
	}
	if x.HasHolders(t2) {
		t.Error("t2 still held after drop")
	}
	if !x.HasHolders(t1) {
		t.Error("t1 lost its unrelated holder")
	}
	if got := x.Drop(holder); got != nil {
		t.Errorf("second drop returned %v, want nil", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	x := refindex.New()
	target := addr(1)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := addr(byte(i + 2))
			x.AddEdge(target, h)
			x.HasHolders(target)
			x.RemoveEdge(target, h)
		}(i)
	}
	wg.Wait()

	if x.HasHolders(target) {
		t.Fatal("edges left behind after concurrent add/remove")
	}
}
