// Package address derives and parses Bitmessage addresses and holds
// the identity keypairs addresses are computed from. It follows the
// teacher's per-package errors.go convention: sentinel errors grouped
// at the top of the file that owns the operation that can fail.
package address

import "errors"

var (
	// ErrInvalidPrefix is returned when a string does not start with "BM-".
	ErrInvalidPrefix = errors.New("address: missing BM- prefix")

	// ErrInvalidBase58 is returned when the remainder does not decode as
	// base58.
	ErrInvalidBase58 = errors.New("address: invalid base58 encoding")

	// ErrInvalidChecksum is returned when the trailing 4-byte checksum
	// does not match the decoded payload.
	ErrInvalidChecksum = errors.New("address: checksum mismatch")

	// ErrInvalidVersion is returned for a version outside [1,4].
	ErrInvalidVersion = errors.New("address: unsupported version")

	// ErrInvalidStream is returned for a stream number of 0.
	ErrInvalidStream = errors.New("address: stream must be >= 1")

	// ErrTruncatedPayload is returned when the decoded payload is too
	// short to contain version, stream, and a RIPE digest.
	ErrTruncatedPayload = errors.New("address: truncated payload")

	// ErrInvalidWIF is returned by DecodeWIF for malformed input.
	ErrInvalidWIF = errors.New("address: invalid WIF encoding")
)
