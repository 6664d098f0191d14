// Package object implements the canonical encoding of the object kinds
// accepted by the pipeline. Every kind marshals to a fixed binary
// layout; the content address of an object is the keccak hash of its
// canonical bytes excluding the trailing signature, and signatures are
// recoverable signatures over that address.
package object

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/mooring"
)

const (
	// headerSize covers magic (2), kind (1) and version (1).
	headerSize = 4
	// version is the only encoding version currently understood.
	version = 0x01
	// MaxPayloadSize bounds container and request payloads.
	MaxPayloadSize = 1 << 22

	payloadLenSize = 4
	counterSize    = 8
	nonceSize      = 8
)

// magic prefixes every canonical encoding.
var magic = [2]byte{0x4d, 0x52}

var (
	// ErrTruncated signals canonical bytes shorter than their layout requires.
	ErrTruncated = errors.New("object: truncated data")
	// ErrTrailing signals bytes left over after the canonical layout.
	ErrTrailing = errors.New("object: trailing data")
	// ErrUnknownKind signals an undeclared or unsupported kind tag.
	ErrUnknownKind = errors.New("object: unknown kind")
	// ErrPayloadSize signals an empty or oversized payload.
	ErrPayloadSize = errors.New("object: invalid payload size")
)

// Object is one decoded member of the closed kind set.
type Object interface {
	// Kind reports the object's kind tag.
	Kind() mooring.Kind
	// Address returns the content-derived identifier of the object.
	Address() mooring.Address
	// Author returns the identity address accountable for the object.
	// For a Request this is the recipient; for an Identity it is the
	// identity's own address.
	Author() mooring.Address
	// Marshal returns the canonical encoding.
	Marshal() []byte
	// Verify checks the object's signature against its declared
	// author. Kinds without a third-party verifiable signature
	// (Identity, Request) verify trivially.
	Verify() error
}

// Unmarshal decodes canonical bytes into a typed object. The encoding
// must be exact: truncated or trailing bytes fail with a structural
// error.
func Unmarshal(data []byte) (Object, error) {
	if len(data) < headerSize {
		return nil, ErrTruncated
	}
	if data[0] != magic[0] || data[1] != magic[1] {
		return nil, fmt.Errorf("object: bad magic %x", data[:2])
	}
	kind := mooring.Kind(data[2])
	if data[3] != version {
		return nil, fmt.Errorf("object: unsupported version %d", data[3])
	}
	body := data[headerSize:]
	switch kind {
	case mooring.KindIdentity:
		return unmarshalIdentity(body)
	case mooring.KindContainer:
		return unmarshalContainer(body)
	case mooring.KindStaticBinding:
		return unmarshalStaticBinding(body)
	case mooring.KindDynamicFrame:
		return unmarshalFrame(body)
	case mooring.KindDebinding:
		return unmarshalDebinding(body)
	case mooring.KindRequest:
		return unmarshalRequest(body)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
}

func header(kind mooring.Kind) []byte {
	return []byte{magic[0], magic[1], byte(kind), version}
}

// addressOf hashes the canonical bytes excluding the signature.
func addressOf(plaintext []byte) mooring.Address {
	h, err := crypto.LegacyKeccak256(plaintext)
	if err != nil {
		// the keccak writer cannot fail on in-memory data
		panic(err)
	}
	return mooring.NewAddress(h)
}

// sign produces the recoverable signature over the object address.
func sign(signer crypto.Signer, addr mooring.Address) ([]byte, error) {
	return signer.Sign(addr.Bytes())
}

// verifyAuthor recovers the signing key from sig over addr and checks
// that it belongs to the declared author identity.
func verifyAuthor(sig []byte, addr, author mooring.Address) error {
	pub, err := crypto.Recover(sig, addr.Bytes())
	if err != nil {
		return fmt.Errorf("%w: %v", mooring.ErrSignature, err)
	}
	if !IdentityAddress(pub).Equal(author) {
		return fmt.Errorf("%w: signer is not the declared author", mooring.ErrSignature)
	}
	return nil
}

func putUint64(b []byte, v uint64) {
	binary.BigEndian.PutUint64(b, v)
}

func uint64At(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
