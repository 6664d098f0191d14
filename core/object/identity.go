package object

import (
	"crypto/ecdsa"

	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/mooring"
)

// Identity registers a public key under its content address. It is
// self-certifying: possession of the key is proven by signatures on
// later objects, so the identity itself carries none.
type Identity struct {
	pub  *ecdsa.PublicKey
	addr mooring.Address
}

// NewIdentity constructs the Identity object for a public key.
func NewIdentity(pub *ecdsa.PublicKey) *Identity {
	i := &Identity{pub: pub}
	i.addr = addressOf(i.Marshal())
	return i
}

// IdentityAddress returns the address the Identity object for pub
// would be stored under. Authors are named by this address everywhere.
func IdentityAddress(pub *ecdsa.PublicKey) mooring.Address {
	return NewIdentity(pub).Address()
}

func unmarshalIdentity(body []byte) (*Identity, error) {
	if len(body) < crypto.PublicKeySize {
		return nil, ErrTruncated
	}
	if len(body) > crypto.PublicKeySize {
		return nil, ErrTrailing
	}
	pub, err := crypto.DecodePublicKey(body)
	if err != nil {
		return nil, err
	}
	return NewIdentity(pub), nil
}

func (i *Identity) Kind() mooring.Kind { return mooring.KindIdentity }

func (i *Identity) Address() mooring.Address {
	if i.addr.IsZero() {
		i.addr = addressOf(i.Marshal())
	}
	return i.addr
}

// Author of an identity is the identity itself.
func (i *Identity) Author() mooring.Address { return i.Address() }

// PublicKey returns the registered public key.
func (i *Identity) PublicKey() *ecdsa.PublicKey { return i.pub }

func (i *Identity) Marshal() []byte {
	return append(header(mooring.KindIdentity), crypto.EncodePublicKey(i.pub)...)
}

// Verify is trivial: a parseable public key is all an identity claims.
func (i *Identity) Verify() error { return nil }
