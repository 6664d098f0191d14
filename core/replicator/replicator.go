// Package replicator defines how the engine exchanges objects with
// remote replicas: fetching a missing dependency on demand and pushing
// freshly accepted objects outward. Replication is best effort; local
// commits never wait for a replica.
package replicator

import (
	"context"

	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/storage"
)

// Interface is the replication contract used by the pipeline.
type Interface interface {
	// Fetch retrieves the canonical bytes of an object from a remote
	// replica. storage.ErrNotFound means no replica has it.
	Fetch(ctx context.Context, addr mooring.Address) ([]byte, error)
	// Push offers a locally accepted object to remote replicas.
	Push(ctx context.Context, item *storage.Item) error
}

type noop struct{}

// NewNoop returns a replicator wired to nothing. Fetches miss and
// pushes succeed silently.
func NewNoop() Interface { return noop{} }

func (noop) Fetch(context.Context, mooring.Address) ([]byte, error) {
	return nil, storage.ErrNotFound
}

func (noop) Push(context.Context, *storage.Item) error { return nil }
