package crypto

import (
	"crypto/ecdsa"

	"github.com/btcsuite/btcd/btcec"
)

// Signer produces recoverable signatures over 32 byte digests.
type Signer interface {
	// Sign signs the given digest.
	Sign(digest []byte) ([]byte, error)
	// PublicKey returns the public key this Signer uses.
	PublicKey() (*ecdsa.PublicKey, error)
}

type defaultSigner struct {
	key *ecdsa.PrivateKey
}

// NewDefaultSigner constructs a Signer from a secp256k1 private key.
func NewDefaultSigner(key *ecdsa.PrivateKey) Signer {
	return &defaultSigner{
		key: key,
	}
}

func (d *defaultSigner) Sign(digest []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, errInvalidLength
	}
	return btcec.SignCompact(btcec.S256(), (*btcec.PrivateKey)(d.key), digest, false)
}

func (d *defaultSigner) PublicKey() (*ecdsa.PublicKey, error) {
	return &d.key.PublicKey, nil
}
