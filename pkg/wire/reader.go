package wire

import "encoding/binary"

// Reader is a cursor over an in-memory buffer that decodes the
// fixed-width and variable-length fields used throughout the object
// model. It never allocates more than the caller's buffer already
// holds, so a length-prefixed substructure (Sub) can never read past
// the bound its own length field declared, even if that field lies.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential decoding starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Pos returns the current read offset.
func (r *Reader) Pos() int {
	return r.pos
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes and returns a view into the
// underlying buffer (callers that retain the result past the next
// mutation of buf must copy it).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadUint16 reads a big-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint32 reads a big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadUint64 reads a big-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadInt64 reads a big-endian int64 (used for expiresTime/timestamps).
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadVarint reads a varint, lenient on non-minimal encodings (see
// ReadVarint's package-level doc).
func (r *Reader) ReadVarint() (uint64, error) {
	v, n, err := ReadVarint(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// ReadVarBytes reads a varint length followed by that many bytes.
func (r *Reader) ReadVarBytes() ([]byte, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		return nil, ErrVarintOverflow
	}
	return r.ReadBytes(int(n))
}

// ReadVarString reads a varstring: UTF-8 bytes prefixed with a varint
// byte length (Bitmessage does not separately length-prefix a rune
// count; it is byte-oriented like Bitcoin's).
func (r *Reader) ReadVarString() (string, error) {
	b, err := r.ReadVarBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadVarintList reads a varint count followed by that many varints.
func (r *Reader) ReadVarintList() ([]uint64, error) {
	count, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if count > uint64(r.Remaining()) {
		// Each varint is at least 1 byte, so count can't exceed remaining.
		return nil, ErrVarintOverflow
	}
	out := make([]uint64, count)
	for i := range out {
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Sub carves out a bounded sub-Reader over the next n bytes and
// advances the outer cursor past them. Use this to decode a
// length-prefixed substructure without letting it read into whatever
// follows it in the outer buffer.
func (r *Reader) Sub(n int) (*Reader, error) {
	b, err := r.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}
