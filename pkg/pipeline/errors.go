// Package pipeline drives the send/receive flow of spec.md §4.7:
// pubkey request/response, message encryption and proof-of-work
// enqueueing, decryption-and-delivery of inbound objects, and the
// plaintext message status machine. It is grounded on the teacher's
// pkg/exchange.Context / pkg/securechannel/pase request-then-deliver
// idiom, generalized from a pairwise session handshake to
// Bitmessage's asynchronous pubkey-then-message flow.
package pipeline

import "errors"

var (
	// ErrUnknownRecipient is returned by SendMessage when the local
	// address repository holds no pubkey for the recipient; a fresh
	// getpubkey request is issued on every such call, even if one is
	// already pending.
	// It is informational, not fatal: the caller should expect the
	// message to sit in PUBKEY_REQUESTED until a pubkey arrives.
	ErrUnknownRecipient = errors.New("pipeline: recipient pubkey unknown, request issued")

	// ErrUnsupportedAddressVersion is returned for identities or
	// recipients whose address version this pipeline does not drive
	// (only versions 2-4 are implemented).
	ErrUnsupportedAddressVersion = errors.New("pipeline: unsupported address version")

	// ErrNoLocalIdentity names the case where no local identity is able
	// to decrypt a given object. HandleMsg does not return it: a MSG
	// addressed to nobody here is dropped with a nil error.
	ErrNoLocalIdentity = errors.New("pipeline: no matching local identity")
)
