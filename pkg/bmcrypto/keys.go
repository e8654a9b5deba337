package bmcrypto

import (
	"crypto/rand"

	"gitlab.com/yawning/secp256k1-voi/secec"
)

// ScalarSize and UncompressedXYSize are the sizes of a raw secp256k1
// scalar and of a bare (no format-byte) uncompressed point as used on
// the Bitmessage wire: addresses and objects carry 64-byte X||Y public
// keys, never the SEC1 0x04-prefixed 65-byte form the underlying curve
// library produces.
const (
	ScalarSize         = 32
	UncompressedXYSize = 64
)

// PrivateKey is a single secp256k1 scalar. Bitmessage identities hold
// two of these (signing and encryption); composing them is the
// address package's concern, not this one's.
type PrivateKey struct {
	inner *secec.PrivateKey
}

// PublicKey is a single secp256k1 point, held in its bare 64-byte
// Bitmessage wire encoding.
type PublicKey struct {
	inner *secec.PublicKey
}

// GenerateKey produces a fresh random PrivateKey.
func GenerateKey() (*PrivateKey, error) {
	k, err := secec.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{inner: k}, nil
}

// NewPrivateKey constructs a PrivateKey from its 32-byte scalar
// encoding, as read from an address repository or a WIF-decoded key.
func NewPrivateKey(scalar []byte) (*PrivateKey, error) {
	if len(scalar) != ScalarSize {
		return nil, ErrInvalidKey
	}
	k, err := secec.NewPrivateKey(scalar)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return &PrivateKey{inner: k}, nil
}

// Bytes returns the 32-byte scalar encoding.
func (k *PrivateKey) Bytes() []byte {
	return k.inner.Bytes()
}

// Public returns the PrivateKey's corresponding PublicKey.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{inner: k.inner.PublicKey()}
}

// ECDH performs a secp256k1 Diffie-Hellman exchange with remote and
// returns the 32-byte shared x-coordinate.
func (k *PrivateKey) ECDH(remote *PublicKey) ([]byte, error) {
	return k.inner.ECDH(remote.inner)
}

// NewPublicKey constructs a PublicKey from its bare 64-byte X||Y
// Bitmessage wire encoding.
func NewPublicKey(xy []byte) (*PublicKey, error) {
	if len(xy) != UncompressedXYSize {
		return nil, ErrInvalidKey
	}
	sec1 := make([]byte, 0, 1+UncompressedXYSize)
	sec1 = append(sec1, 0x04)
	sec1 = append(sec1, xy...)

	inner, err := secec.NewPublicKey(sec1)
	if err != nil {
		return nil, ErrInvalidKey
	}
	return &PublicKey{inner: inner}, nil
}

// Bytes returns the bare 64-byte X||Y Bitmessage wire encoding.
func (k *PublicKey) Bytes() []byte {
	full := k.inner.Bytes() // 0x04 || X || Y
	return full[1:]
}
