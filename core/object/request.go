package object

import (
	"encoding/binary"

	"github.com/lodeworks/mooring/core/mooring"
)

// Request is an ephemeral message addressed to one recipient's mailbox.
// Its payload is opaque to the store (encrypted for the recipient), so
// no third-party signature check applies. Requests carry no keep-alive
// edges and are consumed by acknowledgement, not by the collector.
type Request struct {
	recipient mooring.Address
	payload   []byte
	addr      mooring.Address
}

// NewRequest constructs a request for the recipient's mailbox.
func NewRequest(recipient mooring.Address, payload []byte) (*Request, error) {
	if len(payload) == 0 || len(payload) > MaxPayloadSize {
		return nil, ErrPayloadSize
	}
	r := &Request{
		recipient: recipient,
		payload:   payload,
	}
	r.addr = addressOf(r.Marshal())
	return r, nil
}

func unmarshalRequest(body []byte) (*Request, error) {
	if len(body) < mooring.AddressSize+payloadLenSize+1 {
		return nil, ErrTruncated
	}
	cursor := 0
	recipient := mooring.NewAddress(body[cursor : cursor+mooring.AddressSize])
	cursor += mooring.AddressSize
	n := binary.BigEndian.Uint32(body[cursor : cursor+payloadLenSize])
	cursor += payloadLenSize
	if n == 0 || n > MaxPayloadSize {
		return nil, ErrPayloadSize
	}
	if len(body) < cursor+int(n) {
		return nil, ErrTruncated
	}
	if len(body) > cursor+int(n) {
		return nil, ErrTrailing
	}
	r := &Request{
		recipient: recipient,
		payload:   body[cursor:],
	}
	r.addr = addressOf(r.Marshal())
	return r, nil
}

func (r *Request) Kind() mooring.Kind       { return mooring.KindRequest }
func (r *Request) Address() mooring.Address { return r.addr }

// Author of a request is its recipient: the identity accountable for
// consuming it and the mailbox it is indexed under.
func (r *Request) Author() mooring.Address { return r.recipient }

// Recipient returns the mailbox address.
func (r *Request) Recipient() mooring.Address { return r.recipient }

// Payload returns the opaque payload bytes.
func (r *Request) Payload() []byte { return r.payload }

func (r *Request) Marshal() []byte {
	b := header(mooring.KindRequest)
	b = append(b, r.recipient.Bytes()...)
	l := make([]byte, payloadLenSize)
	binary.BigEndian.PutUint32(l, uint32(len(r.payload)))
	b = append(b, l...)
	return append(b, r.payload...)
}

// Verify is trivial: request payloads are not verifiable by the store.
func (r *Request) Verify() error { return nil }
