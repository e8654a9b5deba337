package bmcrypto

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // required for v2-address signature compatibility
	"crypto/sha256"
)

// DigestVersion selects which hash function feeds the ECDSA preimage.
// Bitmessage address version 2 objects are signed over a SHA-1 digest;
// version 3 and later switch to SHA-256. Getting this wrong produces a
// signature that looks well-formed but never verifies against other
// implementations, so callers must pick it from the signing address's
// version, never guess.
type DigestVersion int

const (
	// DigestSHA1 matches version-2 address signatures.
	DigestSHA1 DigestVersion = iota
	// DigestSHA256 matches version-3-and-later address signatures.
	DigestSHA256
)

// Digest hashes preimage with the hash function selected by v.
func Digest(v DigestVersion, preimage []byte) []byte {
	switch v {
	case DigestSHA1:
		d := sha1.Sum(preimage) //nolint:gosec
		return d[:]
	default:
		d := sha256.Sum256(preimage)
		return d[:]
	}
}

// Sign computes a DER-encoded ECDSA signature over preimage, hashed
// with the digest function for v. This is the signing operation used
// for every signed object (Pubkey v2/v3/v4, Msg, Broadcast).
func Sign(priv *PrivateKey, v DigestVersion, preimage []byte) ([]byte, error) {
	return priv.inner.SignASN1(rand.Reader, Digest(v, preimage))
}

// Verify checks a DER-encoded ECDSA signature over preimage against
// pub, using the digest function for v. It returns false (never an
// error) on any malformed signature, matching the "drop, don't crash"
// handling spec.md §7 requires for SignatureInvalid.
func Verify(pub *PublicKey, v DigestVersion, preimage, sig []byte) bool {
	return pub.inner.VerifyASN1(Digest(v, preimage), sig)
}
