// Package ports declares the abstract collaborators the protocol
// engine consumes but does not implement: persistence, low-level
// connection scheduling beyond the handshake state machine, and
// application-facing notifications (spec.md §6). It mirrors the
// teacher's pkg/matter.Storage interface style: small, capability-per-
// method interfaces a concrete adapter implements, injected into the
// engine at construction rather than referenced as a concrete type.
package ports

import (
	"context"
	"time"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/noderegistry"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// Inventory is the persistence-backed view of the node's object set.
// pkg/inventory.Table satisfies it directly; a durable implementation
// would additionally flush to disk.
type Inventory interface {
	GetInventory(streams []uint64) []wireobj.InventoryVector
	GetObject(iv wireobj.InventoryVector) (*wireobj.ObjectMessage, bool)
	StoreObject(obj *wireobj.ObjectMessage) (wireobj.InventoryVector, error)
	Cleanup() int
}

// NodeRegistry is the persistence-backed view of known peers.
// pkg/noderegistry.Registry satisfies it directly.
type NodeRegistry interface {
	GetKnownAddresses(limit int, streams []uint64) []noderegistry.Peer
	OfferAddresses(peers []noderegistry.Peer)
}

// Identity is a local address the node holds both keys for.
type Identity struct {
	Address *address.Address
	Private *address.PrivateKey
}

// Contact is a remote address the node has exchanged, or is trying to
// exchange, a pubkey with.
type Contact struct {
	Address *address.Address
	Pubkey  *wireobj.PubkeyV3 // nil until the pubkey has been received
}

// AddressRepository owns identities, contacts, and subscriptions.
type AddressRepository interface {
	GetIdentities() []Identity
	GetSubscriptions(version uint64) []Identity
	GetContacts() []Contact
	FindContact(ripeOrTag []byte) (Contact, bool)
	FindIdentity(ripeOrTag []byte) (Identity, bool)
	GetAddress(s string) (*address.Address, error)
	Save(a *address.Address) error
	// SaveContact persists or updates a contact's known pubkey, as
	// distinct from Save's plain address bookkeeping.
	SaveContact(c Contact) error
	Remove(a *address.Address) error
}

// MessageStatus mirrors spec.md §3's plaintext message lifecycle.
type MessageStatus int

const (
	StatusDraft MessageStatus = iota
	StatusPubkeyRequested
	StatusDoingProofOfWork
	StatusSent
	StatusReceived
	StatusAckReceived
)

// LabelType mirrors spec.md §3's Label type enum.
type LabelType int

const (
	LabelNone LabelType = iota
	LabelInbox
	LabelSent
	LabelDraft
	LabelTrash
	LabelUnread
	LabelBroadcast
)

// Label is a user- or system-assigned tag on a stored message.
type Label struct {
	ID    string
	Name  string
	Type  LabelType
	Color string
}

// StoredMessage is the persisted form of spec.md §3's plaintext message.
type StoredMessage struct {
	IV            wireobj.InventoryVector
	Type          string // "msg" or "broadcast"
	From          *address.Address
	To            *address.Address // nil for broadcast
	Encoding      uint64
	Subject       []byte
	Body          []byte
	AckData       []byte
	Status        MessageStatus
	Labels        []Label
	SentTime      time.Time
	ReceivedTime  time.Time
}

// MessageRepository owns plaintext messages and their labels.
//
// FindMessagesByStatus and FindMessagesByLabel return the repository's
// own *StoredMessage pointers, not copies: callers that mutate a
// result (e.g. advancing Status) and pass it back to Save are updating
// the same record, not inserting a new one.
type MessageRepository interface {
	GetLabels(types ...LabelType) []Label
	FindMessagesByStatus(status MessageStatus, recipient *address.Address) []*StoredMessage
	FindMessagesByLabel(label Label) []*StoredMessage
	Save(m *StoredMessage) error
	Remove(m *StoredMessage) error
}

// ProofOfWorkItem is a queued, not-yet-completed proof-of-work request.
type ProofOfWorkItem struct {
	InitialHash [64]byte
	Target      uint64
	ObjectID    string
}

// ProofOfWorkRepository persists pending proof-of-work items across
// restarts (spec.md §6).
type ProofOfWorkRepository interface {
	Enqueue(item ProofOfWorkItem) error
	Dequeue() (ProofOfWorkItem, bool, error)
	Remove(objectID string) error
}

// NetworkHandler is the connection-scheduling collaborator the network
// state machine (pkg/netpeer) is injected into an application through.
type NetworkHandler interface {
	Start(listenAddr string) error
	Stop() error
	Offer(iv wireobj.InventoryVector)
	Send(ctx context.Context, host string, port uint16, command string, payload []byte) error
	Synchronize(ctx context.Context, host string, port uint16, timeout time.Duration) error
}

// Listener receives delivery and progress notifications from the
// send/receive pipeline.
type Listener interface {
	OnMessageReceived(m *StoredMessage)
	OnMessageStatusChanged(m *StoredMessage, oldStatus, newStatus MessageStatus)
	OnPubkeyReceived(c Contact)
}
