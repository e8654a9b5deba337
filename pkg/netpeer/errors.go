// Package netpeer implements the per-connection gossip state machine
// of spec.md §4.6: the version/verack handshake, the addr/inv/getdata/
// object exchange, and flood-to-random-peers relay. It is grounded on
// the teacher's pkg/transport.TCP (config struct, logger injection,
// goroutine-per-connection, connection map with double-checked dial)
// generalized from a raw byte pipe into a protocol-aware state
// machine, the role the teacher split across its securechannel and
// exchange packages for Matter's PASE/CASE handshake.
package netpeer

import "errors"

var (
	// ErrSelfConnect is returned when a peer's version nonce matches
	// our own, indicating we connected to ourselves.
	ErrSelfConnect = errors.New("netpeer: self-connection detected")

	// ErrProtocolTooOld is returned when a peer advertises a protocol
	// version below the minimum this engine speaks.
	ErrProtocolTooOld = errors.New("netpeer: peer protocol version too old")

	// ErrNoSharedStream is returned when a peer subscribes to none of
	// our streams.
	ErrNoSharedStream = errors.New("netpeer: no shared stream with peer")

	// ErrClockSkew is returned when a peer's version timestamp is too
	// far from our own clock.
	ErrClockSkew = errors.New("netpeer: peer clock skew exceeds tolerance")

	// ErrNotActive is returned when an operation that requires an
	// ACTIVE connection is attempted before the handshake completes.
	ErrNotActive = errors.New("netpeer: connection not active")

	// ErrClosed is returned when an operation is attempted on a closed
	// connection or manager.
	ErrClosed = errors.New("netpeer: closed")

	// ErrUnknownCommand is returned for a frame command this engine
	// does not recognize. Per spec.md §6 "custom" covers anything
	// application-defined; anything else is a protocol violation.
	ErrUnknownCommand = errors.New("netpeer: unknown command")
)
