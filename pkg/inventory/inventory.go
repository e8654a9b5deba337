package inventory

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/ports"
	"github.com/wirebit/bitmesh/pkg/pow"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// acceptableFuture and acceptablePast bound an object's declared
// expiry against the local clock (spec.md §4.6, checked invariant
// #1): expiresTime must be within (now-3h, now+5m], that is strictly
// after now-3h and no later than now+5m.
const (
	acceptablePast   = 3 * time.Hour
	acceptableFuture = 5 * time.Minute
)

// entry is a single stored object (spec.md §3's Inventory entry).
type entry struct {
	stream      uint64
	expiresTime int64
	object      *wireobj.ObjectMessage
}

// Config configures a Table.
type Config struct {
	// Streams lists the stream numbers this node subscribes to.
	// Objects outside these streams are rejected.
	Streams []uint64

	// Now returns the current time; overridable for deterministic
	// tests. Defaults to time.Now.
	Now func() time.Time

	// LoggerFactory builds the leveled logger used for
	// acceptance/rejection tracing. A nil factory disables logging.
	LoggerFactory logging.LoggerFactory
}

// Table is the node's inventory: a stream-indexed map of
// InventoryVector to ObjectMessage, guarded by a single mutex (spec.md
// §5: "contention is expected to be low because IVs are hashed").
type Table struct {
	mu      sync.RWMutex
	entries map[wireobj.InventoryVector]entry

	streams map[uint64]struct{}
	now     func() time.Time
	log     logging.LeveledLogger
}

// NewTable constructs a Table from config.
func NewTable(config Config) *Table {
	streams := make(map[uint64]struct{}, len(config.Streams))
	for _, s := range config.Streams {
		streams[s] = struct{}{}
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("inventory")
	} else {
		log = logging.NewDefaultLoggerFactory().NewLogger("inventory")
	}

	return &Table{
		entries: make(map[wireobj.InventoryVector]entry),
		streams: streams,
		now:     now,
		log:     log,
	}
}

// Accept runs the acceptance checks of spec.md §4.6 against an already
// decoded object, short of storing it. Checks (1)-(3) and (5); check
// (4), "parse succeeds", is implied by the caller already holding a
// decoded *wireobj.ObjectMessage.
func (t *Table) Accept(obj *wireobj.ObjectMessage) error {
	now := t.now()
	expires := time.Unix(obj.ExpiresTime, 0)

	if !expires.After(now.Add(-acceptablePast)) {
		return ErrExpired
	}
	if expires.After(now.Add(acceptableFuture)) {
		return ErrFarFuture
	}

	if _, ok := t.streams[obj.Stream]; !ok {
		return ErrUnsubscribedStream
	}

	if !verifyProofOfWork(obj, now) {
		return ErrPowInvalid
	}

	t.mu.RLock()
	_, present := t.entries[obj.InventoryVector()]
	t.mu.RUnlock()
	if present {
		return ErrAlreadyPresent
	}

	return nil
}

// Store runs Accept and, on success, inserts the object. The returned
// IV is always valid even on error, so callers can log or key off it.
func (t *Table) Store(obj *wireobj.ObjectMessage) (wireobj.InventoryVector, error) {
	iv := obj.InventoryVector()

	if err := t.Accept(obj); err != nil {
		t.log.Debugf("rejecting object %x: %v", iv[:8], err)
		return iv, err
	}

	t.mu.Lock()
	if _, present := t.entries[iv]; present {
		t.mu.Unlock()
		return iv, ErrAlreadyPresent
	}
	t.entries[iv] = entry{stream: obj.Stream, expiresTime: obj.ExpiresTime, object: obj}
	t.mu.Unlock()

	return iv, nil
}

// Get returns the object for iv, if known.
func (t *Table) Get(iv wireobj.InventoryVector) (*wireobj.ObjectMessage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[iv]
	if !ok {
		return nil, false
	}
	return e.object, true
}

// Have reports whether iv is already known, without copying the object.
func (t *Table) Have(iv wireobj.InventoryVector) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[iv]
	return ok
}

// Vectors returns every known IV whose stream is in streams (or every
// known IV, if streams is empty).
func (t *Table) Vectors(streams []uint64) []wireobj.InventoryVector {
	want := make(map[uint64]struct{}, len(streams))
	for _, s := range streams {
		want[s] = struct{}{}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]wireobj.InventoryVector, 0, len(t.entries))
	for iv, e := range t.entries {
		if len(want) == 0 {
			out = append(out, iv)
			continue
		}
		if _, ok := want[e.stream]; ok {
			out = append(out, iv)
		}
	}
	return out
}

// Cleanup evicts every entry whose expiresTime has passed, returning
// the count removed.
func (t *Table) Cleanup() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for iv, e := range t.entries {
		if now.After(time.Unix(e.expiresTime, 0)) {
			delete(t.entries, iv)
			removed++
		}
	}
	if removed > 0 {
		t.log.Debugf("evicted %d expired objects", removed)
	}
	return removed
}

// Len returns the number of stored objects.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// GetInventory implements ports.Inventory, the send/receive pipeline's
// narrower view of a Table.
func (t *Table) GetInventory(streams []uint64) []wireobj.InventoryVector {
	return t.Vectors(streams)
}

// GetObject implements ports.Inventory.
func (t *Table) GetObject(iv wireobj.InventoryVector) (*wireobj.ObjectMessage, bool) {
	return t.Get(iv)
}

// StoreObject implements ports.Inventory.
func (t *Table) StoreObject(obj *wireobj.ObjectMessage) (wireobj.InventoryVector, error) {
	return t.Store(obj)
}

var _ ports.Inventory = (*Table)(nil)

// verifyProofOfWork checks an object's nonce against the target
// computed from its declared length and remaining TTL, using the
// network-default PoW parameters (spec.md §4.6 check 3). Per-recipient
// stricter parameters, when known from a contact's pubkey, are the
// sending pipeline's concern, not the inventory's: a receiving node
// only ever enforces the network minimum.
func verifyProofOfWork(obj *wireobj.ObjectMessage, now time.Time) bool {
	body := obj.Encode()[8:] // everything hashed into initialHash
	ttl := obj.ExpiresTime - now.Unix()
	if ttl < 0 {
		ttl = 0
	}

	target := pow.Target(len(body), ttl, pow.DefaultNonceTrialsPerByte, pow.DefaultExtraBytes)

	initialHash := obj.InitialHash()
	var preimage [8 + 64]byte
	binary.BigEndian.PutUint64(preimage[:8], obj.Nonce)
	copy(preimage[8:], initialHash[:])

	digest := bmcrypto.DoubleSHA512(preimage[:])
	return binary.BigEndian.Uint64(digest[:8]) <= target
}
