package wireobj

import (
	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/wire"
)

// DigestVersionFor returns the ECDSA digest rule for an object of the
// given address version: SHA-1 for v2, SHA-256 for v3 and later
// (spec.md §4.2).
func DigestVersionFor(addressVersion uint64) bmcrypto.DigestVersion {
	if addressVersion <= 2 {
		return bmcrypto.DigestSHA1
	}
	return bmcrypto.DigestSHA256
}

// WriteBytesToSign builds the canonical preimage for an object's
// signature (spec.md §4.4): expiresTime ‖ objectType ‖ version ‖
// stream ‖ body, where body is the payload-specific content with the
// signature field itself omitted, optionally prefixed by a 32-byte
// tag for v4 pubkey and v5 broadcast objects.
func WriteBytesToSign(o *ObjectMessage, tag *[32]byte, body []byte) []byte {
	w := wire.NewWriter(8 + 4 + 2*wire.MaxVarintLen + 32 + len(body))
	w.WriteInt64(o.ExpiresTime)
	w.WriteUint32(o.ObjectType)
	w.WriteVarint(o.Version)
	w.WriteVarint(o.Stream)
	if tag != nil {
		w.WriteBytes(tag[:])
	}
	w.WriteBytes(body)
	return w.Bytes()
}

// Sign computes a DER signature over the preimage built from o, tag,
// and body, using the digest rule for o.Version.
func Sign(priv *bmcrypto.PrivateKey, o *ObjectMessage, tag *[32]byte, body []byte) ([]byte, error) {
	preimage := WriteBytesToSign(o, tag, body)
	return bmcrypto.Sign(priv, DigestVersionFor(o.Version), preimage)
}

// Verify checks sig over the preimage built from o, tag, and body.
func Verify(pub *bmcrypto.PublicKey, o *ObjectMessage, tag *[32]byte, body, sig []byte) bool {
	preimage := WriteBytesToSign(o, tag, body)
	return bmcrypto.Verify(pub, DigestVersionFor(o.Version), preimage, sig)
}
