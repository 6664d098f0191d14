package object

import (
	"fmt"

	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/mooring"
)

// lineageDomain separates lineage addresses from object addresses in
// the hash input, so a lineage address can never collide with the
// address of a stored object.
const lineageDomain = 0xf0

// Frame is one signed record of a dynamic binding lineage. Frames
// advance a strictly increasing counter and name the lineage's current
// target; the retained history lists prior targets kept alive across
// the advance.
type Frame struct {
	author  mooring.Address
	nonce   uint64
	counter uint64
	target  mooring.Address
	history []mooring.Address
	sig     []byte
	addr    mooring.Address
}

// NewFrame constructs and signs a lineage frame. The lineage is fully
// determined by the signer's identity and the nonce; a first frame must
// carry an empty history.
func NewFrame(nonce, counter uint64, target mooring.Address, history []mooring.Address, signer crypto.Signer) (*Frame, error) {
	if len(history) > mooring.HistoryMax {
		return nil, fmt.Errorf("object: history too long: %d", len(history))
	}
	pub, err := signer.PublicKey()
	if err != nil {
		return nil, err
	}
	f := &Frame{
		author:  IdentityAddress(pub),
		nonce:   nonce,
		counter: counter,
		target:  target,
		history: history,
	}
	f.addr = addressOf(f.plaintext())
	f.sig, err = sign(signer, f.addr)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// LineageAddress derives the mutable-pointer address of the lineage
// owned by author under nonce. It is stable across all frames of the
// lineage.
func LineageAddress(author mooring.Address, nonce uint64) mooring.Address {
	b := []byte{magic[0], magic[1], lineageDomain, version}
	b = append(b, author.Bytes()...)
	n := make([]byte, nonceSize)
	putUint64(n, nonce)
	return addressOf(append(b, n...))
}

func unmarshalFrame(body []byte) (*Frame, error) {
	fixed := mooring.AddressSize + nonceSize + counterSize + mooring.AddressSize + 1
	if len(body) < fixed+mooring.SignatureSize {
		return nil, ErrTruncated
	}
	cursor := 0
	author := mooring.NewAddress(body[cursor : cursor+mooring.AddressSize])
	cursor += mooring.AddressSize
	nonce := uint64At(body[cursor:])
	cursor += nonceSize
	counter := uint64At(body[cursor:])
	cursor += counterSize
	target := mooring.NewAddress(body[cursor : cursor+mooring.AddressSize])
	cursor += mooring.AddressSize
	n := int(body[cursor])
	cursor++
	if len(body) < cursor+n*mooring.AddressSize+mooring.SignatureSize {
		return nil, ErrTruncated
	}
	if len(body) > cursor+n*mooring.AddressSize+mooring.SignatureSize {
		return nil, ErrTrailing
	}
	history := make([]mooring.Address, n)
	for i := 0; i < n; i++ {
		history[i] = mooring.NewAddress(body[cursor : cursor+mooring.AddressSize])
		cursor += mooring.AddressSize
	}
	f := &Frame{
		author:  author,
		nonce:   nonce,
		counter: counter,
		target:  target,
		history: history,
		sig:     body[cursor:],
	}
	f.addr = addressOf(f.plaintext())
	return f, nil
}

func (f *Frame) plaintext() []byte {
	b := header(mooring.KindDynamicFrame)
	b = append(b, f.author.Bytes()...)
	n := make([]byte, nonceSize+counterSize)
	putUint64(n[:nonceSize], f.nonce)
	putUint64(n[nonceSize:], f.counter)
	b = append(b, n...)
	b = append(b, f.target.Bytes()...)
	b = append(b, byte(len(f.history)))
	for _, h := range f.history {
		b = append(b, h.Bytes()...)
	}
	return b
}

func (f *Frame) Kind() mooring.Kind       { return mooring.KindDynamicFrame }
func (f *Frame) Address() mooring.Address { return f.addr }
func (f *Frame) Author() mooring.Address  { return f.author }

// Lineage returns the mutable-pointer address this frame advances.
func (f *Frame) Lineage() mooring.Address {
	return LineageAddress(f.author, f.nonce)
}

// Nonce returns the lineage discriminator chosen at creation.
func (f *Frame) Nonce() uint64 { return f.nonce }

// Counter returns the frame's position in the lineage ordering.
func (f *Frame) Counter() uint64 { return f.counter }

// Target returns the address the lineage currently points at.
func (f *Frame) Target() mooring.Address { return f.target }

// History returns the retained prior targets.
func (f *Frame) History() []mooring.Address { return f.history }

func (f *Frame) Marshal() []byte {
	return append(f.plaintext(), f.sig...)
}

func (f *Frame) Verify() error {
	if err := verifyAuthor(f.sig, f.addr, f.author); err != nil {
		return fmt.Errorf("frame %s: %w", f.addr, err)
	}
	return nil
}
