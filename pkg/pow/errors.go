// Package pow implements the Bitmessage proof-of-work engine: a
// parallel SHA-512 double-hash nonce search against a target derived
// from an object's declared length and time-to-live, with a
// process-wide admission limit of one outstanding search (spec.md
// §4.5). It follows the teacher's worker-pool-with-config idiom
// (pkg/transport.Manager's Start/Stop lifecycle) generalized from an
// I/O transport to a CPU-bound search.
package pow

import "errors"

var (
	// ErrCancelled is returned when a search is cancelled via its
	// context before finding a nonce. Not an error for a caller that
	// requested the cancellation (spec.md §7's Cancelled kind).
	ErrCancelled = errors.New("pow: search cancelled")

	// ErrNoWorkers is returned if a caller configures a worker count of
	// zero or less after defaulting.
	ErrNoWorkers = errors.New("pow: no workers configured")
)
