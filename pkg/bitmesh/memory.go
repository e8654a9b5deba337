package bitmesh

import (
	"encoding/hex"
	"sync"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/ports"
)

// MemoryAddressRepository is an in-memory ports.AddressRepository.
// Useful for testing and development; data is lost when the process
// exits (mirrors the teacher's matter.MemoryStorage).
//
// All methods are safe for concurrent use.
type MemoryAddressRepository struct {
	mu sync.RWMutex

	identities    map[string]ports.Identity
	contacts      map[string]ports.Contact
	subscriptions map[string]ports.Identity
}

// NewMemoryAddressRepository creates a new in-memory address repository.
func NewMemoryAddressRepository() *MemoryAddressRepository {
	return &MemoryAddressRepository{
		identities:    make(map[string]ports.Identity),
		contacts:      make(map[string]ports.Contact),
		subscriptions: make(map[string]ports.Identity),
	}
}

func addrKey(a *address.Address) string {
	if a.Version >= 4 {
		tag := address.CalculateTag(a.Version, a.Stream, a.Ripe)
		return targetKey(tag[:])
	}
	return targetKey(a.Ripe[:])
}

func targetKey(b []byte) string {
	return hex.EncodeToString(b)
}

// AddIdentity registers a local identity the node can send and receive as.
func (r *MemoryAddressRepository) AddIdentity(identity ports.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[addrKey(identity.Address)] = identity
}

// AddSubscription registers a broadcast channel address to listen on.
func (r *MemoryAddressRepository) AddSubscription(sub ports.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscriptions[addrKey(sub.Address)] = sub
}

func (r *MemoryAddressRepository) GetIdentities() []ports.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Identity, 0, len(r.identities))
	for _, id := range r.identities {
		out = append(out, id)
	}
	return out
}

func (r *MemoryAddressRepository) GetSubscriptions(version uint64) []ports.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Identity, 0, len(r.subscriptions))
	for _, sub := range r.subscriptions {
		if sub.Address.Version == version {
			out = append(out, sub)
		}
	}
	return out
}

func (r *MemoryAddressRepository) GetContacts() []ports.Contact {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ports.Contact, 0, len(r.contacts))
	for _, c := range r.contacts {
		out = append(out, c)
	}
	return out
}

func (r *MemoryAddressRepository) FindContact(ripeOrTag []byte) (ports.Contact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contacts[targetKey(ripeOrTag)]
	return c, ok
}

func (r *MemoryAddressRepository) FindIdentity(ripeOrTag []byte) (ports.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.identities[targetKey(ripeOrTag)]
	return id, ok
}

func (r *MemoryAddressRepository) GetAddress(s string) (*address.Address, error) {
	return address.Parse(s)
}

func (r *MemoryAddressRepository) Save(a *address.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contacts[addrKey(a)]; !ok {
		r.contacts[addrKey(a)] = ports.Contact{Address: a}
	}
	return nil
}

func (r *MemoryAddressRepository) SaveContact(c ports.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contacts[addrKey(c.Address)] = c
	return nil
}

func (r *MemoryAddressRepository) Remove(a *address.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contacts, addrKey(a))
	delete(r.identities, addrKey(a))
	return nil
}

var _ ports.AddressRepository = (*MemoryAddressRepository)(nil)

// MemoryMessageRepository is an in-memory ports.MessageRepository.
type MemoryMessageRepository struct {
	mu       sync.RWMutex
	messages []*ports.StoredMessage
	labels   []ports.Label
}

// NewMemoryMessageRepository creates a new in-memory message repository.
func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		labels: []ports.Label{
			{ID: "inbox", Name: "Inbox", Type: ports.LabelInbox},
			{ID: "sent", Name: "Sent", Type: ports.LabelSent},
			{ID: "unread", Name: "Unread", Type: ports.LabelUnread},
			{ID: "broadcast", Name: "Broadcasts", Type: ports.LabelBroadcast},
			{ID: "trash", Name: "Trash", Type: ports.LabelTrash},
		},
	}
}

func (r *MemoryMessageRepository) GetLabels(types ...ports.LabelType) []ports.Label {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(types) == 0 {
		out := make([]ports.Label, len(r.labels))
		copy(out, r.labels)
		return out
	}
	want := make(map[ports.LabelType]struct{}, len(types))
	for _, t := range types {
		want[t] = struct{}{}
	}
	var out []ports.Label
	for _, l := range r.labels {
		if _, ok := want[l.Type]; ok {
			out = append(out, l)
		}
	}
	return out
}

func (r *MemoryMessageRepository) FindMessagesByStatus(status ports.MessageStatus, recipient *address.Address) []*ports.StoredMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*ports.StoredMessage
	for _, m := range r.messages {
		if m.Status != status {
			continue
		}
		if recipient != nil && (m.To == nil || *m.To != *recipient) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *MemoryMessageRepository) FindMessagesByLabel(label ports.Label) []*ports.StoredMessage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*ports.StoredMessage
	for _, m := range r.messages {
		for _, l := range m.Labels {
			if l.Type == label.Type {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func (r *MemoryMessageRepository) Save(m *ports.StoredMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.messages {
		if existing == m {
			r.messages[i] = m
			return nil
		}
	}
	r.messages = append(r.messages, m)
	return nil
}

func (r *MemoryMessageRepository) Remove(m *ports.StoredMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.messages {
		if existing == m {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return nil
		}
	}
	return nil
}

var _ ports.MessageRepository = (*MemoryMessageRepository)(nil)
