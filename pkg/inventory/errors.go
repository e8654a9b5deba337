// Package inventory holds the set of unexpired network objects a node
// knows about, indexed by stream, with TTL-based eviction (spec.md §3,
// §4.6). It is grounded on the teacher's pkg/session.Table shape: an
// indexed, mutex-guarded map with an explicit eviction sweep, adapted
// from per-fabric session lookup to per-stream object gossip.
package inventory

import "errors"

var (
	// ErrAlreadyPresent is returned by Store when the object's IV is
	// already known; the caller (the gossip state machine) treats this
	// as "already present" and does not notify or re-advertise.
	ErrAlreadyPresent = errors.New("inventory: object already present")

	// ErrExpired is returned by the acceptance check when an object's
	// expiresTime falls outside the accepted window.
	ErrExpired = errors.New("inventory: object expired")

	// ErrFarFuture is returned by the acceptance check when an object's
	// expiresTime is too far ahead of the local clock.
	ErrFarFuture = errors.New("inventory: object expiry too far in the future")

	// ErrUnsubscribedStream is returned when an object's stream is not
	// one the node subscribes to.
	ErrUnsubscribedStream = errors.New("inventory: stream not subscribed")

	// ErrPowInvalid is returned when an object's nonce does not meet
	// its computed target.
	ErrPowInvalid = errors.New("inventory: proof-of-work invalid")
)
