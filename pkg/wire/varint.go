package wire

import "encoding/binary"

// Varint prefix bytes (Bitmessage wire format).
const (
	prefix16 = 0xFD
	prefix32 = 0xFE
	prefix64 = 0xFF
)

// MaxVarintLen is the largest number of bytes a varint can occupy on the
// wire (1-byte prefix + 8-byte value).
const MaxVarintLen = 9

// PutVarint appends the minimal varint encoding of v to dst and returns
// the extended slice. Writers always emit the minimal form; strictness
// is a read-time-only concern (see doc comment on ReadVarint).
func PutVarint(dst []byte, v uint64) []byte {
	switch {
	case v < prefix16:
		return append(dst, byte(v))
	case v <= 0xFFFF:
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(v))
		return append(append(dst, prefix16), buf[:]...)
	case v <= 0xFFFFFFFF:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(v))
		return append(append(dst, prefix32), buf[:]...)
	default:
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], v)
		return append(append(dst, prefix64), buf[:]...)
	}
}

// VarintLen returns the number of bytes PutVarint would write for v.
func VarintLen(v uint64) int {
	switch {
	case v < prefix16:
		return 1
	case v <= 0xFFFF:
		return 3
	case v <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// ReadVarint decodes a varint from the front of data, returning the value
// and the number of bytes consumed.
//
// The reference Bitmessage implementation accepts non-minimal encodings on
// read (e.g. a value of 1 encoded as the 3-byte 0xFD form); this reader
// matches that behavior rather than rejecting it, per spec.md's Open
// Question #2 (lenient-read, strict-write). Use ReadVarintStrict to
// additionally enforce minimality, e.g. when validating objects received
// from an untrusted peer under a stricter interoperability policy.
func ReadVarint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrTruncated
	}

	switch b := data[0]; {
	case b < prefix16:
		return uint64(b), 1, nil
	case b == prefix16:
		if len(data) < 3 {
			return 0, 0, ErrTruncated
		}
		return uint64(binary.BigEndian.Uint16(data[1:3])), 3, nil
	case b == prefix32:
		if len(data) < 5 {
			return 0, 0, ErrTruncated
		}
		return uint64(binary.BigEndian.Uint32(data[1:5])), 5, nil
	default: // prefix64
		if len(data) < 9 {
			return 0, 0, ErrTruncated
		}
		return binary.BigEndian.Uint64(data[1:9]), 9, nil
	}
}

// ReadVarintStrict behaves like ReadVarint but rejects any encoding that
// is not the minimal form for its value, returning ErrNonMinimalVarint.
func ReadVarintStrict(data []byte) (uint64, int, error) {
	v, n, err := ReadVarint(data)
	if err != nil {
		return 0, 0, err
	}
	if n != VarintLen(v) {
		return 0, 0, ErrNonMinimalVarint
	}
	return v, n, nil
}
