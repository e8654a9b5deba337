package address

import "github.com/wirebit/bitmesh/pkg/bmcrypto"

// maxVanityAttempts bounds the version-3/4 "at least one leading zero
// byte" retry loop (spec.md §3 invariant 2 / §8 property 2). In
// practice the expected number of attempts is ~256; this is a generous
// upper bound so a broken RNG fails loudly instead of spinning forever.
const maxVanityAttempts = 1 << 20

// PrivateKey holds the two secp256k1 scalars backing a Bitmessage
// identity: one for signing outgoing objects, one for receiving
// CryptoBox envelopes addressed to the identity.
type PrivateKey struct {
	SigningKey    *bmcrypto.PrivateKey
	EncryptionKey *bmcrypto.PrivateKey
}

// PublicKey holds the two secp256k1 points corresponding to a PrivateKey.
type PublicKey struct {
	SigningKey    *bmcrypto.PublicKey
	EncryptionKey *bmcrypto.PublicKey
}

// Public returns the PublicKey corresponding to k.
func (k *PrivateKey) Public() *PublicKey {
	return &PublicKey{
		SigningKey:    k.SigningKey.Public(),
		EncryptionKey: k.EncryptionKey.Public(),
	}
}

// ComputeRipe computes RIPEMD-160(SHA-512(signingPub || encryptionPub)),
// the digest an address is built from.
func ComputeRipe(pub *PublicKey) [20]byte {
	preimage := make([]byte, 0, 128)
	preimage = append(preimage, pub.SigningKey.Bytes()...)
	preimage = append(preimage, pub.EncryptionKey.Bytes()...)
	return bmcrypto.RIPEMD160(bmcrypto.SHA512Slice(preimage))
}

// FromPrivateKey derives the Address for priv at the given version and
// stream. It does not enforce the v3/v4 leading-zero-byte vanity rule;
// callers minting a brand new identity should use GenerateIdentity
// instead, which retries until that invariant holds.
func FromPrivateKey(priv *PrivateKey, version, stream uint64) *Address {
	ripe := ComputeRipe(priv.Public())
	return New(version, stream, ripe)
}

// GenerateIdentity creates a fresh random identity for the given
// version and stream. For version 3 and 4 it regenerates the key pair
// until the resulting RIPE digest begins with at least one zero byte,
// shortening the resulting address string (spec.md §3, §8 property 2).
// Version 1/2 identities are returned on the first attempt.
func GenerateIdentity(version, stream uint64) (*PrivateKey, *Address, error) {
	for attempt := 0; attempt < maxVanityAttempts; attempt++ {
		signing, err := bmcrypto.GenerateKey()
		if err != nil {
			return nil, nil, err
		}
		encryption, err := bmcrypto.GenerateKey()
		if err != nil {
			return nil, nil, err
		}

		priv := &PrivateKey{SigningKey: signing, EncryptionKey: encryption}
		ripe := ComputeRipe(priv.Public())

		if version < 3 || ripe[0] == 0 {
			return priv, New(version, stream, ripe), nil
		}
	}
	return nil, nil, ErrInvalidVersion
}
