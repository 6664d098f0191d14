package object

import (
	"encoding/binary"
	"fmt"

	"github.com/lodeworks/mooring/core/crypto"
	"github.com/lodeworks/mooring/core/mooring"
)

// Container is an immutable opaque payload with a declared author.
type Container struct {
	author  mooring.Address
	payload []byte
	sig     []byte
	addr    mooring.Address
}

// NewContainer constructs and signs a container over payload.
func NewContainer(payload []byte, signer crypto.Signer) (*Container, error) {
	if len(payload) == 0 || len(payload) > MaxPayloadSize {
		return nil, ErrPayloadSize
	}
	pub, err := signer.PublicKey()
	if err != nil {
		return nil, err
	}
	c := &Container{
		author:  IdentityAddress(pub),
		payload: payload,
	}
	c.addr = addressOf(c.plaintext())
	c.sig, err = sign(signer, c.addr)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func unmarshalContainer(body []byte) (*Container, error) {
	min := mooring.AddressSize + payloadLenSize + mooring.SignatureSize
	if len(body) < min+1 {
		return nil, ErrTruncated
	}
	cursor := 0
	author := mooring.NewAddress(body[cursor : cursor+mooring.AddressSize])
	cursor += mooring.AddressSize
	n := binary.BigEndian.Uint32(body[cursor : cursor+payloadLenSize])
	cursor += payloadLenSize
	if n == 0 || n > MaxPayloadSize {
		return nil, ErrPayloadSize
	}
	if len(body) < cursor+int(n)+mooring.SignatureSize {
		return nil, ErrTruncated
	}
	if len(body) > cursor+int(n)+mooring.SignatureSize {
		return nil, ErrTrailing
	}
	c := &Container{
		author:  author,
		payload: body[cursor : cursor+int(n)],
		sig:     body[cursor+int(n):],
	}
	c.addr = addressOf(c.plaintext())
	return c, nil
}

func (c *Container) plaintext() []byte {
	b := header(mooring.KindContainer)
	b = append(b, c.author.Bytes()...)
	l := make([]byte, payloadLenSize)
	binary.BigEndian.PutUint32(l, uint32(len(c.payload)))
	b = append(b, l...)
	return append(b, c.payload...)
}

func (c *Container) Kind() mooring.Kind       { return mooring.KindContainer }
func (c *Container) Address() mooring.Address { return c.addr }
func (c *Container) Author() mooring.Address  { return c.author }

// Payload returns the opaque payload bytes.
func (c *Container) Payload() []byte { return c.payload }

func (c *Container) Marshal() []byte {
	return append(c.plaintext(), c.sig...)
}

func (c *Container) Verify() error {
	if err := verifyAuthor(c.sig, c.addr, c.author); err != nil {
		return fmt.Errorf("container %s: %w", c.addr, err)
	}
	return nil
}
