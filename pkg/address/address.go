package address

import (
	"strings"

	"github.com/mr-tron/base58"

	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/wire"
)

// checksumSize is the length, in bytes, of the trailing checksum on an
// encoded address.
const checksumSize = 4

// Address identifies a Bitmessage identity, contact, or subscription.
// Per spec.md §3, two addresses that parse to the same (Version,
// Stream, Ripe) are the same address regardless of how they were
// constructed; String() and Parse() round-trip byte-identically.
type Address struct {
	Version uint64
	Stream  uint64
	Ripe    [20]byte
}

// New constructs an Address from its fields.
func New(version, stream uint64, ripe [20]byte) *Address {
	return &Address{Version: version, Stream: stream, Ripe: ripe}
}

// payload returns varint(version) || varint(stream) || ripe-stripped,
// the portion of the address that is checksummed and base58-encoded.
// The RIPE digest is left-stripped of leading zero bytes on the wire,
// which is also why short addresses (more leading RIPE zero bytes) are
// shorter strings -- the motivation for the vanity-mining retry loop in
// privatekey.go.
func (a *Address) payload() []byte {
	w := wire.NewWriter(2*wire.MaxVarintLen + 20)
	w.WriteVarint(a.Version)
	w.WriteVarint(a.Stream)
	w.WriteBytes(stripLeadingZeros(a.Ripe[:]))
	return w.Bytes()
}

// checksum computes SHA-512(SHA-512(payload))[0:4].
func checksum(payload []byte) [checksumSize]byte {
	d := bmcrypto.DoubleSHA512(payload)
	var out [checksumSize]byte
	copy(out[:], d[:checksumSize])
	return out
}

// String encodes the address as "BM-" followed by the base58 encoding
// of payload || checksum.
func (a *Address) String() string {
	payload := a.payload()
	sum := checksum(payload)

	full := make([]byte, 0, len(payload)+checksumSize)
	full = append(full, payload...)
	full = append(full, sum[:]...)

	return "BM-" + base58.Encode(full)
}

// Parse decodes an address string, verifying its checksum and
// re-padding its RIPE digest back to 20 bytes.
func Parse(s string) (*Address, error) {
	rest, ok := strings.CutPrefix(s, "BM-")
	if !ok {
		return nil, ErrInvalidPrefix
	}

	decoded, err := base58.Decode(rest)
	if err != nil {
		return nil, ErrInvalidBase58
	}
	if len(decoded) < checksumSize {
		return nil, ErrTruncatedPayload
	}

	payload := decoded[:len(decoded)-checksumSize]
	wantSum := decoded[len(decoded)-checksumSize:]
	gotSum := checksum(payload)
	if !constantTimeEqual(gotSum[:], wantSum) {
		return nil, ErrInvalidChecksum
	}

	r := wire.NewReader(payload)
	version, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	stream, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	if version < 1 || version > 4 {
		return nil, ErrInvalidVersion
	}
	if stream < 1 {
		return nil, ErrInvalidStream
	}

	ripeStripped, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	if len(ripeStripped) > 20 {
		return nil, ErrTruncatedPayload
	}

	var ripe [20]byte
	copy(ripe[20-len(ripeStripped):], ripeStripped)

	return &Address{Version: version, Stream: stream, Ripe: ripe}, nil
}

// tagPreimage returns varint(version) || varint(stream) || ripe, over
// the full 20-byte RIPE digest. This is distinct from payload(), which
// strips the RIPE's leading zero bytes for the address *string*
// encoding only (spec.md §3): the tag and decryption key are derived
// from the RIPE digest itself, not from its address-string shorthand.
func tagPreimage(version, stream uint64, ripe [20]byte) []byte {
	w := wire.NewWriter(2*wire.MaxVarintLen + 20)
	w.WriteVarint(version)
	w.WriteVarint(stream)
	w.WriteBytes(ripe[:])
	return w.Bytes()
}

// CalculateTag derives the 32-byte routing tag used to address a v4+
// pubkey or v5 broadcast without revealing the RIPE digest: the second
// half of SHA-512(SHA-512(varint(version) || varint(stream) || ripe)).
func CalculateTag(version, stream uint64, ripe [20]byte) [32]byte {
	d := bmcrypto.DoubleSHA512(tagPreimage(version, stream, ripe))
	var out [32]byte
	copy(out[:], bmcrypto.MacSecondHalf(d))
	return out
}

// CalculateDecryptionKey derives the 32-byte ECDH private scalar a v4+
// address's owner uses to decrypt their own pubkey/broadcast envelopes:
// the first half of the same double-SHA-512 digest CalculateTag uses.
func CalculateDecryptionKey(version, stream uint64, ripe [20]byte) [32]byte {
	d := bmcrypto.DoubleSHA512(tagPreimage(version, stream, ripe))
	var out [32]byte
	copy(out[:], bmcrypto.MacFirstHalf(d))
	return out
}

func stripLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
