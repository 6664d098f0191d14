// Package mooring exposes the data structure and operations necessary
// on the mooring.Address type, the content-derived identifier under
// which every object in the mooring graph is stored and referenced.
package mooring

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

const (
	// AddressSize is the fixed byte length of an object identifier.
	AddressSize = 32
	// SignatureSize is the byte length of a recoverable signature.
	SignatureSize = 65
	// HistoryMax is the maximum number of retained prior targets a
	// dynamic frame may carry.
	HistoryMax = 255
)

// Address is the content-derived identifier of an object. Equality of
// addresses implies equality of the canonical content they were derived
// from.
type Address struct {
	b []byte
}

// NewAddress constructs an Address from a byte slice.
func NewAddress(b []byte) Address {
	return Address{b: b}
}

// ParseHexAddress returns an Address from a hex-encoded string representation.
func ParseHexAddress(s string) (a Address, err error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return a, err
	}
	return NewAddress(b), nil
}

// MustParseHexAddress returns an Address from a hex-encoded string
// representation, and panics if there is a parse error.
func MustParseHexAddress(s string) Address {
	a, err := ParseHexAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns a hex-encoded representation of the Address.
func (a Address) String() string {
	return hex.EncodeToString(a.b)
}

// Equal returns true if two addresses are identical.
func (a Address) Equal(b Address) bool {
	return bytes.Equal(a.b, b.b)
}

// IsZero returns true if the Address is not set to any valid value.
func (a Address) IsZero() bool {
	return a.Equal(ZeroAddress)
}

// Bytes returns bytes representation of the Address.
func (a Address) Bytes() []byte {
	return a.b
}

// ByteString returns raw Address string without encoding.
func (a Address) ByteString() string {
	return string(a.Bytes())
}

// MarshalJSON returns JSON-encoded representation of Address.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON sets Address to a value from JSON-encoded representation.
func (a *Address) UnmarshalJSON(b []byte) (err error) {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*a, err = ParseHexAddress(s)
	return err
}

// ZeroAddress is the address that has no value.
var ZeroAddress = NewAddress(nil)

// Kind is the tag of the closed set of object variants understood by
// the pipeline.
type Kind uint8

const (
	// KindUnknown tags bytes that do not declare a valid kind.
	KindUnknown Kind = iota
	// KindIdentity is a self-certifying public key registration.
	KindIdentity
	// KindContainer is an immutable opaque payload with a declared author.
	KindContainer
	// KindStaticBinding is a permanent signed keep-alive assertion.
	KindStaticBinding
	// KindDynamicFrame is one signed frame of a mutable-pointer lineage.
	KindDynamicFrame
	// KindDebinding is a signed retraction of a prior binding or frame.
	KindDebinding
	// KindRequest is an ephemeral addressed message outside the
	// reference-counted graph.
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindContainer:
		return "container"
	case KindStaticBinding:
		return "static-binding"
	case KindDynamicFrame:
		return "dynamic-frame"
	case KindDebinding:
		return "debinding"
	case KindRequest:
		return "request"
	default:
		return fmt.Sprintf("unknown kind %d", uint8(k))
	}
}
