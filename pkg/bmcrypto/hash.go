package bmcrypto

import (
	"crypto/sha512"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required by the Bitmessage address format
)

// SHA512Size is the digest size of SHA-512 in bytes.
const SHA512Size = sha512.Size // 64

// SHA512 computes the SHA-512 digest of message.
func SHA512(message []byte) [SHA512Size]byte {
	return sha512.Sum512(message)
}

// SHA512Slice is a convenience wrapper returning the digest as a slice.
func SHA512Slice(message []byte) []byte {
	h := sha512.Sum512(message)
	return h[:]
}

// DoubleSHA512 computes SHA-512(SHA-512(message)), the "mac" construction
// used throughout the protocol for inventory vectors, address checksums,
// and proof-of-work target comparisons.
func DoubleSHA512(message []byte) [SHA512Size]byte {
	first := sha512.Sum512(message)
	return sha512.Sum512(first[:])
}

// DoubleSHA512Slice is a convenience wrapper returning the digest as a slice.
func DoubleSHA512Slice(message []byte) []byte {
	d := DoubleSHA512(message)
	return d[:]
}

// MacFirstHalf returns mac[0:32] of a 64-byte digest: the SHA-512 of
// the ECDH secret when used as a CryptoBox AES key, or a double-SHA-512
// digest when used as an address's public decryption key.
func MacFirstHalf(mac [SHA512Size]byte) []byte {
	out := make([]byte, 32)
	copy(out, mac[:32])
	return out
}

// MacSecondHalf returns mac[32:64] of a 64-byte digest: the SHA-512 of
// the ECDH secret when used as a CryptoBox MAC key, or a double-SHA-512
// digest when used as a v4+ address tag.
func MacSecondHalf(mac [SHA512Size]byte) []byte {
	out := make([]byte, 32)
	copy(out, mac[32:])
	return out
}

// RIPEMD160 computes the RIPEMD-160 digest of message. Bitmessage RIPE
// digests are always computed over a prior SHA-512 hash, never directly
// over variable application data.
func RIPEMD160(message []byte) [20]byte {
	h := ripemd160.New()
	h.Write(message) //nolint:errcheck // hash.Hash.Write never errors
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}
