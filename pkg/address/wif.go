package address

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// DecodeWIF decodes a Wallet Import Format string (as exchanged between
// Bitmessage and Bitcoin-family wallets for the raw signing/encryption
// scalars) into its 32-byte scalar. WIF is a Bitcoin-style
// base58check encoding -- version byte 0x80, the scalar, an optional
// 0x01 compressed-point marker, and a SHA-256d checksum -- distinct
// from the SHA-512-based checksum Bitmessage uses for its own address
// strings.
func DecodeWIF(s string) ([]byte, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return nil, ErrInvalidWIF
	}
	if len(decoded) < 1+32+4 {
		return nil, ErrInvalidWIF
	}

	payload := decoded[:len(decoded)-4]
	wantSum := decoded[len(decoded)-4:]

	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	if !constantTimeEqual(second[:4], wantSum) {
		return nil, ErrInvalidWIF
	}

	if payload[0] != 0x80 {
		return nil, ErrInvalidWIF
	}
	scalar := payload[1:]
	if len(scalar) == 33 && scalar[32] == 0x01 {
		scalar = scalar[:32] // strip compressed-point marker
	}
	if len(scalar) != 32 {
		return nil, ErrInvalidWIF
	}

	out := make([]byte, 32)
	copy(out, scalar)
	return out, nil
}
