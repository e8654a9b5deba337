// Package bitmesh wires the protocol engine's parts -- object model,
// proof-of-work, inventory, peer gossip, and the send/receive pipeline
// -- into a single runnable node. It mirrors the teacher's pkg/matter
// node-assembly idiom: a Config struct with injectable collaborators
// and callbacks, a constructor that fills in sane defaults, and
// Start/Stop lifecycle methods.
package bitmesh

import "errors"

var (
	// ErrNoAddressRepository is returned by NewNode when Config.Addresses is nil.
	ErrNoAddressRepository = errors.New("bitmesh: no address repository configured")

	// ErrNoMessageRepository is returned by NewNode when Config.Messages is nil.
	ErrNoMessageRepository = errors.New("bitmesh: no message repository configured")

	// ErrNotRunning is returned by operations that require a started node.
	ErrNotRunning = errors.New("bitmesh: node is not running")

	// ErrAlreadyRunning is returned by Start on an already-started node.
	ErrAlreadyRunning = errors.New("bitmesh: node is already running")
)
