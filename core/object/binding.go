package object

import (
	"fmt"

	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/mooring"
)

// StaticBinding is a permanent signed assertion that its author vouches
// for the target. It contributes one keep-alive edge to the target for
// as long as it exists.
type StaticBinding struct {
	author mooring.Address
	target mooring.Address
	sig    []byte
	addr   mooring.Address
}

// NewStaticBinding constructs and signs a static binding over target.
func NewStaticBinding(target mooring.Address, signer crypto.Signer) (*StaticBinding, error) {
	pub, err := signer.PublicKey()
	if err != nil {
		return nil, err
	}
	b := &StaticBinding{
		author: IdentityAddress(pub),
		target: target,
	}
	b.addr = addressOf(b.plaintext())
	b.sig, err = sign(signer, b.addr)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func unmarshalStaticBinding(body []byte) (*StaticBinding, error) {
	author, target, sig, err := unmarshalTargeted(body)
	if err != nil {
		return nil, err
	}
	b := &StaticBinding{author: author, target: target, sig: sig}
	b.addr = addressOf(b.plaintext())
	return b, nil
}

func (b *StaticBinding) plaintext() []byte {
	return targetedPlaintext(mooring.KindStaticBinding, b.author, b.target)
}

func (b *StaticBinding) Kind() mooring.Kind       { return mooring.KindStaticBinding }
func (b *StaticBinding) Address() mooring.Address { return b.addr }
func (b *StaticBinding) Author() mooring.Address  { return b.author }

// Target returns the address the binding keeps alive.
func (b *StaticBinding) Target() mooring.Address { return b.target }

func (b *StaticBinding) Marshal() []byte {
	return append(b.plaintext(), b.sig...)
}

func (b *StaticBinding) Verify() error {
	if err := verifyAuthor(b.sig, b.addr, b.author); err != nil {
		return fmt.Errorf("static binding %s: %w", b.addr, err)
	}
	return nil
}

// Debinding is a signed retraction of a prior binding or frame. Only
// the author of the retracted object may issue it.
type Debinding struct {
	author mooring.Address
	target mooring.Address
	sig    []byte
	addr   mooring.Address
}

// NewDebinding constructs and signs a debinding of target.
func NewDebinding(target mooring.Address, signer crypto.Signer) (*Debinding, error) {
	pub, err := signer.PublicKey()
	if err != nil {
		return nil, err
	}
	d := &Debinding{
		author: IdentityAddress(pub),
		target: target,
	}
	d.addr = addressOf(d.plaintext())
	d.sig, err = sign(signer, d.addr)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func unmarshalDebinding(body []byte) (*Debinding, error) {
	author, target, sig, err := unmarshalTargeted(body)
	if err != nil {
		return nil, err
	}
	d := &Debinding{author: author, target: target, sig: sig}
	d.addr = addressOf(d.plaintext())
	return d, nil
}

func (d *Debinding) plaintext() []byte {
	return targetedPlaintext(mooring.KindDebinding, d.author, d.target)
}

func (d *Debinding) Kind() mooring.Kind       { return mooring.KindDebinding }
func (d *Debinding) Address() mooring.Address { return d.addr }
func (d *Debinding) Author() mooring.Address  { return d.author }

// Target returns the address of the retracted object.
func (d *Debinding) Target() mooring.Address { return d.target }

func (d *Debinding) Marshal() []byte {
	return append(d.plaintext(), d.sig...)
}

func (d *Debinding) Verify() error {
	if err := verifyAuthor(d.sig, d.addr, d.author); err != nil {
		return fmt.Errorf("debinding %s: %w", d.addr, err)
	}
	return nil
}

// static bindings and debindings share the author+target layout

func targetedPlaintext(kind mooring.Kind, author, target mooring.Address) []byte {
	b := header(kind)
	b = append(b, author.Bytes()...)
	return append(b, target.Bytes()...)
}

func unmarshalTargeted(body []byte) (author, target mooring.Address, sig []byte, err error) {
	size := 2*mooring.AddressSize + mooring.SignatureSize
	if len(body) < size {
		return author, target, nil, ErrTruncated
	}
	if len(body) > size {
		return author, target, nil, ErrTrailing
	}
	author = mooring.NewAddress(body[:mooring.AddressSize])
	target = mooring.NewAddress(body[mooring.AddressSize : 2*mooring.AddressSize])
	sig = body[2*mooring.AddressSize:]
	return author, target, sig, nil
}
