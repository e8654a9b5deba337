package bmcrypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// HMACSHA256Size is the output size of HMAC-SHA-256 in bytes.
const HMACSHA256Size = sha256.Size // 32

// HMACSHA256 computes the HMAC-SHA-256 MAC of message under key, as used
// to authenticate a CryptoBox envelope's IV, ephemeral point, and
// ciphertext.
func HMACSHA256(key, message []byte) [HMACSHA256Size]byte {
	h := hmac.New(sha256.New, key)
	h.Write(message) //nolint:errcheck // hash.Hash.Write never errors
	var out [HMACSHA256Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HMACEqual compares two MACs in constant time. Always use this instead
// of bytes.Equal when verifying an attacker-supplied MAC.
func HMACEqual(a, b []byte) bool {
	return hmac.Equal(a, b)
}
