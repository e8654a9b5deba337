// Package wireobj implements the Bitmessage object model: the typed
// payloads (getpubkey, pubkey v2/v3/v4, msg, broadcast v4/v5) that are
// carried inside an ObjectMessage, their canonical signing preimages,
// and the inventory vector derived from an object's wire bytes. It
// follows the same tagged-variant idiom the teacher repo uses for its
// protocol messages: one Go type per variant, each with an Encode
// method and a Decode function; ObjectMessage's numeric type code says
// which variant its payload holds.
package wireobj

import "errors"

// Object model errors (spec.md §7's DecodeError / SignatureInvalid /
// DecryptionFailed kinds, scoped to this package's concern).
var (
	// ErrUnknownObjectType names an objectType this package has no
	// variant for. No function in this package returns it: ObjectMessage
	// keeps every payload as raw bytes, so such objects stay opaque
	// (stored and relayed, never delivered), per spec.md §4.4.
	ErrUnknownObjectType = errors.New("wireobj: unknown object type")

	// ErrUnknownPubkeyVersion is returned for a pubkey version outside {2,3,4}.
	ErrUnknownPubkeyVersion = errors.New("wireobj: unknown pubkey version")

	// ErrUnknownBroadcastVersion is returned for a broadcast version outside {4,5}.
	ErrUnknownBroadcastVersion = errors.New("wireobj: unknown broadcast version")

	// ErrTruncatedPayload is returned when a payload ends before a
	// required field has been read.
	ErrTruncatedPayload = errors.New("wireobj: truncated payload")

	// ErrSignatureInvalid is returned by pkg/pipeline's inbound handlers
	// when Verify (which itself returns a bool) rejects a decoded
	// signature against the recomputed preimage.
	ErrSignatureInvalid = errors.New("wireobj: signature invalid")

	// ErrNotEncrypted names an object variant that carries no CryptoBox
	// envelope.
	ErrNotEncrypted = errors.New("wireobj: object carries no envelope")
)
