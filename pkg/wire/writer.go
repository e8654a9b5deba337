package wire

import "encoding/binary"

// Writer accumulates a byte-exact encoding of a wire structure. It is
// used both for messages bound for the network and for the signing
// preimages computed in pkg/wireobj, where byte-for-byte determinism
// matters as much as for the wire itself.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer. The optional size hint avoids
// reallocation for callers that know the approximate output size.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint16 appends a big-endian uint16.
func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint32 appends a big-endian uint32.
func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint64 appends a big-endian uint64.
func (w *Writer) WriteUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteInt64 appends a big-endian int64.
func (w *Writer) WriteInt64(v int64) {
	w.WriteUint64(uint64(v))
}

// WriteVarint appends the minimal varint encoding of v.
func (w *Writer) WriteVarint(v uint64) {
	w.buf = PutVarint(w.buf, v)
}

// WriteVarBytes appends a varint length prefix followed by b.
func (w *Writer) WriteVarBytes(b []byte) {
	w.WriteVarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// WriteVarString appends a varstring: a varint byte length followed by
// the UTF-8 encoding of s.
func (w *Writer) WriteVarString(s string) {
	w.WriteVarBytes([]byte(s))
}

// WriteVarintList appends a varint count followed by each varint in vs.
func (w *Writer) WriteVarintList(vs []uint64) {
	w.WriteVarint(uint64(len(vs)))
	for _, v := range vs {
		w.WriteVarint(v)
	}
}
