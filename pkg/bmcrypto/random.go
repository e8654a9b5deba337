package bmcrypto

import (
	"crypto/rand"
	"encoding/binary"
)

// RandomNonce returns a cryptographically random 64-bit value.
func RandomNonce() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
