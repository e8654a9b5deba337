package noderegistry

import (
	"testing"
	"time"
)

func TestOfferAndKnownAddresses(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := NewRegistry(Config{Now: func() time.Time { return now }})

	r.Offer([]Peer{
		{Host: "10.0.0.1", Port: 8444, Streams: []uint64{1}},
		{Host: "10.0.0.2", Port: 8444, Streams: []uint64{2}},
	})

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}

	onStream1 := r.KnownAddresses(10, []uint64{1})
	if len(onStream1) != 1 || onStream1[0].Host != "10.0.0.1" {
		t.Fatalf("KnownAddresses(stream 1) = %+v", onStream1)
	}
}

func TestKnownAddressesNoStreamFilterReturnsAll(t *testing.T) {
	r := NewRegistry(Config{})
	r.Offer([]Peer{
		{Host: "a", Port: 1, Streams: []uint64{1}},
		{Host: "b", Port: 2, Streams: []uint64{2}},
	})

	all := r.KnownAddresses(10, nil)
	if len(all) != 2 {
		t.Fatalf("KnownAddresses(nil streams) returned %d, want 2", len(all))
	}
}

func TestKnownAddressesCapsAtMaxAddrBatch(t *testing.T) {
	r := NewRegistry(Config{})
	peers := make([]Peer, 0, maxAddrBatch+50)
	for i := 0; i < maxAddrBatch+50; i++ {
		peers = append(peers, Peer{Host: "host", Port: uint16(i), Streams: []uint64{1}})
	}
	r.Offer(peers)

	got := r.KnownAddresses(maxAddrBatch+50, []uint64{1})
	if len(got) != maxAddrBatch {
		t.Fatalf("KnownAddresses returned %d, want capped at %d", len(got), maxAddrBatch)
	}
}

func TestOfferDoesNotRegressLastSeen(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	r := NewRegistry(Config{Now: func() time.Time { return start }})

	later := start.Add(time.Hour)
	r.Offer([]Peer{{Host: "a", Port: 1, LastSeen: later}})
	earlier := start.Add(-time.Hour)
	r.Offer([]Peer{{Host: "a", Port: 1, LastSeen: earlier}})

	got := r.KnownAddresses(10, nil)
	if len(got) != 1 || !got[0].LastSeen.Equal(later) {
		t.Fatalf("LastSeen regressed: got %+v, want %v", got, later)
	}
}

func TestTouchUpdatesLastSeenAndStreams(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	r := NewRegistry(Config{Now: func() time.Time { return now }})

	r.Touch("peer.example", 8444, []uint64{3})
	got := r.KnownAddresses(10, []uint64{3})
	if len(got) != 1 {
		t.Fatalf("Touch did not register a new peer: %+v", got)
	}
	if !got[0].LastSeen.Equal(now) {
		t.Fatalf("LastSeen = %v, want %v", got[0].LastSeen, now)
	}
}
