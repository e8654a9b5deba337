// Package noderegistry tracks known peer network addresses per
// stream, with last-seen timestamps (spec.md §2's Node registry
// component). It is grounded on the teacher's pkg/session.Manager
// shape: an indexed, mutex-guarded table keyed by a grouping field
// (there, fabric; here, stream), adapted to gossip peer discovery
// instead of secure-session bookkeeping.
package noderegistry

import (
	"sync"
	"time"
)

// Peer is a single known network address, offered by a peer's addr
// message or learned from an incoming connection.
type Peer struct {
	Host     string
	Port     uint16
	Streams  []uint64
	LastSeen time.Time
}

// maxAddrBatch bounds how many peers a single addr message advertises
// (spec.md §4.6: "up to 1000 known peers from shared streams").
const maxAddrBatch = 1000

// Registry is the node's table of known peers, indexed by stream.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]Peer // keyed by "host:port"

	now func() time.Time
}

// Config configures a Registry.
type Config struct {
	// Now returns the current time; overridable for deterministic
	// tests. Defaults to time.Now.
	Now func() time.Time
}

// NewRegistry constructs an empty Registry.
func NewRegistry(config Config) *Registry {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{peers: make(map[string]Peer), now: now}
}

func key(host string, port uint16) string {
	return host + ":" + portString(port)
}

func portString(port uint16) string {
	const digits = "0123456789"
	if port == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for port > 0 {
		i--
		buf[i] = digits[port%10]
		port /= 10
	}
	return string(buf[i:])
}

// Offer records or refreshes a batch of peer addresses, as received in
// an addr message or learned from a successful handshake.
func (r *Registry) Offer(peers []Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for _, p := range peers {
		k := key(p.Host, p.Port)
		existing, ok := r.peers[k]
		if !ok || p.LastSeen.After(existing.LastSeen) {
			if p.LastSeen.IsZero() {
				p.LastSeen = now
			}
			r.peers[k] = p
		}
	}
}

// Touch refreshes a single peer's last-seen timestamp to now, used
// when a connection to it becomes ACTIVE.
func (r *Registry) Touch(host string, port uint16, streams []uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(host, port)
	p, ok := r.peers[k]
	if !ok {
		p = Peer{Host: host, Port: port}
	}
	p.Streams = streams
	p.LastSeen = r.now()
	r.peers[k] = p
}

// KnownAddresses returns up to limit peers (capped at maxAddrBatch)
// that share at least one stream with streams.
func (r *Registry) KnownAddresses(limit int, streams []uint64) []Peer {
	if limit <= 0 || limit > maxAddrBatch {
		limit = maxAddrBatch
	}
	want := make(map[uint64]struct{}, len(streams))
	for _, s := range streams {
		want[s] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Peer, 0, limit)
	for _, p := range r.peers {
		if len(out) >= limit {
			break
		}
		if !sharesStream(p.Streams, want) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sharesStream(have []uint64, want map[uint64]struct{}) bool {
	if len(want) == 0 {
		return true
	}
	for _, s := range have {
		if _, ok := want[s]; ok {
			return true
		}
	}
	return false
}

// Len returns the number of known peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
