// Package crypto provides the signing primitives the object model is
// built on: secp256k1 keys, recoverable compact signatures and the
// keccak hash used for content addressing.
package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"

	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/sha3"
)

// PublicKeySize is the byte length of an uncompressed secp256k1 public key.
const PublicKeySize = 65

var errInvalidLength = errors.New("invalid signature or digest length")

// GenerateSecp256k1Key generates an ECDSA private key using secp256k1 curve.
func GenerateSecp256k1Key() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(btcec.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return key, nil
}

// EncodePublicKey encodes public key to an uncompressed 65 byte representation.
func EncodePublicKey(k *ecdsa.PublicKey) []byte {
	return (*btcec.PublicKey)(k).SerializeUncompressed()
}

// DecodePublicKey decodes an uncompressed public key representation.
func DecodePublicKey(b []byte) (*ecdsa.PublicKey, error) {
	k, err := btcec.ParsePubKey(b, btcec.S256())
	if err != nil {
		return nil, err
	}
	return (*ecdsa.PublicKey)(k), nil
}

// Recover verifies a recoverable compact signature over digest and
// returns the signing public key.
func Recover(signature, digest []byte) (*ecdsa.PublicKey, error) {
	if len(signature) != btcec.PubKeyBytesLenUncompressed || len(digest) != 32 {
		return nil, errInvalidLength
	}
	p, _, err := btcec.RecoverCompact(btcec.S256(), signature, digest)
	if err != nil {
		return nil, err
	}
	return (*ecdsa.PublicKey)(p), nil
}

// LegacyKeccak256 returns a 32 byte keccak hash of data.
func LegacyKeccak256(data []byte) ([]byte, error) {
	h := sha3.NewLegacyKeccak256()
	if _, err := h.Write(data); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
