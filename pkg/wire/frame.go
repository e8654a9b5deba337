package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/wirebit/bitmesh/pkg/bmcrypto"
)

// Magic is the 4-byte value every frame begins with, identifying the
// Bitmessage wire protocol and guarding against a peer speaking some
// other protocol on the same port.
const Magic uint32 = 0xE9BEB4D9

// CommandSize is the fixed width of a frame's ASCII, NUL-padded command
// field.
const CommandSize = 12

// ChecksumSize is the width of a frame's payload checksum.
const ChecksumSize = 4

// MaxPayloadSize is the largest payload a single frame may declare.
// Oversized frames are rejected before any allocation for their
// payload, per spec.md §8's boundary behavior.
const MaxPayloadSize = 1600003

// headerSize is the number of bytes preceding the payload: magic(4) +
// command(12) + length(4) + checksum(4).
const headerSize = 4 + CommandSize + 4 + ChecksumSize

// Frame is a single wire-level protocol message: a command name and its
// payload. Commands defined by spec.md §6: version, verack, addr, inv,
// getdata, object, custom.
type Frame struct {
	Command string
	Payload []byte
}

// Encode serializes f to its wire representation.
func (f *Frame) Encode() ([]byte, error) {
	var cmd [CommandSize]byte
	if len(f.Command) > CommandSize {
		return nil, ErrBadCommand
	}
	copy(cmd[:], f.Command)

	sum := bmcrypto.SHA512Slice(f.Payload)

	out := make([]byte, 0, headerSize+len(f.Payload))
	var magicBuf [4]byte
	binary.BigEndian.PutUint32(magicBuf[:], Magic)
	out = append(out, magicBuf[:]...)
	out = append(out, cmd[:]...)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(f.Payload)))
	out = append(out, lenBuf[:]...)
	out = append(out, sum[:ChecksumSize]...)
	out = append(out, f.Payload...)
	return out, nil
}

// DecodeFrame parses a single frame from the front of data, returning
// the frame and the number of bytes consumed.
func DecodeFrame(data []byte) (*Frame, int, error) {
	if len(data) < headerSize {
		return nil, 0, ErrTruncated
	}

	if binary.BigEndian.Uint32(data[0:4]) != Magic {
		return nil, 0, ErrBadMagic
	}

	cmdBytes := data[4 : 4+CommandSize]
	cmd, err := decodeCommand(cmdBytes)
	if err != nil {
		return nil, 0, err
	}

	lengthOffset := 4 + CommandSize
	length := binary.BigEndian.Uint32(data[lengthOffset : lengthOffset+4])
	if length > MaxPayloadSize {
		return nil, 0, ErrFrameTooLarge
	}

	checksumOffset := lengthOffset + 4
	payloadOffset := checksumOffset + ChecksumSize
	total := payloadOffset + int(length)
	if len(data) < total {
		return nil, 0, ErrTruncated
	}

	payload := data[payloadOffset:total]
	wantSum := bmcrypto.SHA512Slice(payload)[:ChecksumSize]
	if !bytes.Equal(wantSum, data[checksumOffset:payloadOffset]) {
		return nil, 0, ErrBadChecksum
	}

	return &Frame{Command: cmd, Payload: payload}, total, nil
}

func decodeCommand(b []byte) (string, error) {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	for _, c := range b[n:] {
		if c != 0 {
			return "", ErrBadCommand
		}
	}
	return string(b[:n]), nil
}

// StreamReader incrementally decodes frames from a byte stream such as
// a TCP connection, buffering partial reads across calls the way the
// teacher's message.StreamReader buffers partial Matter frames.
type StreamReader struct {
	r   io.Reader
	buf []byte
}

// NewStreamReader wraps r for frame-at-a-time reading.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{r: r}
}

// ReadFrame blocks until a complete frame has been read, growing its
// internal buffer as needed, and returns the decoded frame.
func (s *StreamReader) ReadFrame() (*Frame, error) {
	chunk := make([]byte, 4096)
	for {
		if frame, n, err := DecodeFrame(s.buf); err == nil {
			s.buf = s.buf[n:]
			return frame, nil
		} else if err != ErrTruncated {
			return nil, err
		}

		n, err := s.r.Read(chunk)
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
		}
		if err != nil {
			return nil, err
		}
	}
}

// StreamWriter serializes frames to an io.Writer one at a time.
type StreamWriter struct {
	w io.Writer
}

// NewStreamWriter wraps w for frame-at-a-time writing.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// WriteFrame encodes and writes a single frame.
func (s *StreamWriter) WriteFrame(f *Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	_, err = s.w.Write(data)
	return err
}
