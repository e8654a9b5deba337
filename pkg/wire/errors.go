// Package wire implements the Bitmessage wire codec: variable-length
// integers, length-prefixed strings and byte strings, and the network
// frame envelope that every command is carried in.
package wire

import "errors"

// Codec-level errors.
var (
	// ErrTruncated is returned when a reader runs out of bytes mid-field.
	ErrTruncated = errors.New("wire: truncated input")

	// ErrNonMinimalVarint is returned by ReadVarintStrict when a varint
	// could have been encoded in fewer bytes. Ordinary Reader reads are
	// lenient (see ReadVarint); only strict-mode callers see this.
	ErrNonMinimalVarint = errors.New("wire: non-minimal varint encoding")

	// ErrVarintOverflow is returned when a decoded varint exceeds the
	// caller's declared bound (used to keep length-prefixed substructures
	// from claiming more memory than the surrounding frame can hold).
	ErrVarintOverflow = errors.New("wire: varint exceeds bound")

	// ErrFrameTooLarge is returned when a frame's declared payload length
	// exceeds MaxPayloadSize.
	ErrFrameTooLarge = errors.New("wire: frame payload exceeds maximum size")

	// ErrBadMagic is returned when a frame does not begin with the network
	// magic value.
	ErrBadMagic = errors.New("wire: bad magic value")

	// ErrBadChecksum is returned when a frame's checksum does not match
	// its payload.
	ErrBadChecksum = errors.New("wire: checksum mismatch")

	// ErrBadCommand is returned when a frame's command field is not
	// NUL-padded ASCII.
	ErrBadCommand = errors.New("wire: malformed command field")
)
