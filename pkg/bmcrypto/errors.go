// Package bmcrypto adapts the cryptographic primitives required by the
// Bitmessage wire protocol (SHA-256/512, RIPEMD-160, HMAC-SHA-256,
// AES-256-CBC, and secp256k1 ECDSA/ECDH) behind a small, total API.
// It mirrors the shape of the teacher repo's pkg/crypto package (one
// file per primitive, package-level functions over a stateful type,
// doc comments naming the exact spec section being implemented) but
// targets the Bitmessage protocol instead of Matter's AES-CCM/P-256
// stack; the curve work itself is delegated to the pack's dedicated
// secp256k1 library rather than hand-rolled.
package bmcrypto

import "errors"

// Crypto adapter errors, matching spec.md §7's DecryptionFailed and
// SignatureInvalid kinds.
var (
	// ErrDecryptionFailed covers AES failures and, more commonly, MAC
	// mismatches: CryptoBox envelopes that are not addressed to us fail
	// here silently and are expected, not exceptional.
	ErrDecryptionFailed = errors.New("bmcrypto: decryption failed")

	// ErrInvalidKey is returned when a key has the wrong length or is
	// otherwise structurally invalid (e.g. the zero scalar).
	ErrInvalidKey = errors.New("bmcrypto: invalid key")

	// ErrInvalidSignature names a signature that does not validate.
	// Verify reports that case as a false result rather than as this
	// error; sign/verify failures are SignatureInvalid at the
	// object-model layer, not an adapter-level panic.
	ErrInvalidSignature = errors.New("bmcrypto: invalid signature")

	// ErrInvalidCiphertext is returned when a CryptoBox envelope is too
	// short to contain its fixed-size fields.
	ErrInvalidCiphertext = errors.New("bmcrypto: truncated ciphertext")
)
