// Package storage defines the durable object store contract used by
// the pipeline. The store owns the canonical bytes of every accepted
// object; deletion happens only through the collector or a request
// acknowledgement.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/lodeworks/mooring/core/mooring"
)

var (
	// ErrNotFound is returned for identifiers with no stored object.
	ErrNotFound = errors.New("storage: not found")
	// ErrConflict is returned when a put names an identifier already
	// associated with different canonical bytes. Content addressing
	// makes that an equivocation, never a legitimate overwrite.
	ErrConflict = errors.New("storage: conflict")
)

// Item is one stored object together with its metadata.
type Item struct {
	Address mooring.Address
	Kind    mooring.Kind
	// Author is the accountable identity: the author of a container
	// or binding, the recipient of a request.
	Author mooring.Address
	// Seq is the arrival order assigned by the store at first put.
	Seq uint64
	// Data holds the canonical encoding.
	Data []byte
}

// Getter reads objects by identifier.
type Getter interface {
	Get(ctx context.Context, addr mooring.Address) (*Item, error)
	Has(ctx context.Context, addr mooring.Address) (bool, error)
}

// Putter writes objects. Put assigns Item.Seq. Re-putting an item with
// identical bytes is a no-op; differing bytes fail with ErrConflict.
type Putter interface {
	Put(ctx context.Context, item *Item) error
}

// Storer is the full store contract.
type Storer interface {
	Getter
	Putter
	// Delete removes a stored object. Absent identifiers return
	// ErrNotFound.
	Delete(ctx context.Context, addr mooring.Address) error
	// Iterate walks all stored items in unspecified order until fn
	// returns stop or an error.
	Iterate(ctx context.Context, fn func(item *Item) (stop bool, err error)) error
	io.Closer
}
