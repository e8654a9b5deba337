package bitmesh

import (
	"context"
	"testing"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/ports"
)

func TestNewNodeRequiresAddressAndMessageRepositories(t *testing.T) {
	if _, err := NewNode(NodeConfig{}); err != ErrNoAddressRepository {
		t.Fatalf("got %v, want ErrNoAddressRepository", err)
	}

	if _, err := NewNode(NodeConfig{Addresses: NewMemoryAddressRepository()}); err != ErrNoMessageRepository {
		t.Fatalf("got %v, want ErrNoMessageRepository", err)
	}
}

func TestNodeLifecycle(t *testing.T) {
	n, err := NewNode(NodeConfig{
		Streams:   []uint64{1},
		Addresses: NewMemoryAddressRepository(),
		Messages:  NewMemoryMessageRepository(),
	})
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if n.State() != NodeStateStopped {
		t.Fatalf("initial State() = %v, want Stopped", n.State())
	}

	if err := n.Stop(); err != ErrNotRunning {
		t.Fatalf("Stop before Start: got %v, want ErrNotRunning", err)
	}

	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n.State() != NodeStateRunning {
		t.Fatalf("State() after Start = %v, want Running", n.State())
	}
	if err := n.Start(context.Background()); err != ErrAlreadyRunning {
		t.Fatalf("second Start: got %v, want ErrAlreadyRunning", err)
	}

	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if n.State() != NodeStateStopped {
		t.Fatalf("State() after Stop = %v, want Stopped", n.State())
	}
}

func TestNodeStateChangeCallback(t *testing.T) {
	var seen []NodeState
	n, err := NewNode(NodeConfig{
		Addresses:      NewMemoryAddressRepository(),
		Messages:       NewMemoryMessageRepository(),
		OnStateChanged: func(s NodeState) { seen = append(seen, s) },
	})
	if err != nil {
		t.Fatalf("NewNode: %v", err)
	}
	if err := n.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := n.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	want := []NodeState{NodeStateStarting, NodeStateRunning, NodeStateStopping, NodeStateStopped}
	if len(seen) != len(want) {
		t.Fatalf("state transitions = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("state transitions = %v, want %v", seen, want)
		}
	}
}

func TestNodeStateString(t *testing.T) {
	cases := map[NodeState]string{
		NodeStateStopped:  "Stopped",
		NodeStateStarting: "Starting",
		NodeStateRunning:  "Running",
		NodeStateStopping: "Stopping",
		NodeState(99):     "Unknown",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}

func TestMemoryAddressRepositoryIdentitiesAndContacts(t *testing.T) {
	repo := NewMemoryAddressRepository()

	priv, addr, err := address.GenerateIdentity(4, 1)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	repo.AddIdentity(ports.Identity{Address: addr, Private: priv})

	identities := repo.GetIdentities()
	if len(identities) != 1 || *identities[0].Address != *addr {
		t.Fatalf("GetIdentities() = %+v", identities)
	}

	tag := address.CalculateTag(addr.Version, addr.Stream, addr.Ripe)
	got, ok := repo.FindIdentity(tag[:])
	if !ok || *got.Address != *addr {
		t.Fatalf("FindIdentity(tag) = %+v, %v", got, ok)
	}

	_, contactAddr := addressGenerateContact(t)
	if err := repo.Save(contactAddr); err != nil {
		t.Fatalf("Save: %v", err)
	}
	contactTag := address.CalculateTag(contactAddr.Version, contactAddr.Stream, contactAddr.Ripe)
	contact, ok := repo.FindContact(contactTag[:])
	if !ok || contact.Pubkey != nil {
		t.Fatalf("FindContact after Save = %+v, %v", contact, ok)
	}

	if err := repo.Remove(addr); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := repo.FindIdentity(tag[:]); ok {
		t.Fatal("identity still present after Remove")
	}
}

func addressGenerateContact(t *testing.T) (*address.PrivateKey, *address.Address) {
	t.Helper()
	priv, addr, err := address.GenerateIdentity(4, 1)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	return priv, addr
}

func TestMemoryMessageRepositoryLabelsAndStatus(t *testing.T) {
	repo := NewMemoryMessageRepository()

	labels := repo.GetLabels()
	if len(labels) == 0 {
		t.Fatal("GetLabels() returned no default labels")
	}

	inboxOnly := repo.GetLabels(ports.LabelInbox)
	if len(inboxOnly) != 1 || inboxOnly[0].Type != ports.LabelInbox {
		t.Fatalf("GetLabels(LabelInbox) = %+v", inboxOnly)
	}

	_, addr, err := address.GenerateIdentity(4, 1)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	msg := &ports.StoredMessage{To: addr, Status: ports.StatusSent, Labels: []ports.Label{{Type: ports.LabelSent}}}
	if err := repo.Save(msg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	byStatus := repo.FindMessagesByStatus(ports.StatusSent, addr)
	if len(byStatus) != 1 {
		t.Fatalf("FindMessagesByStatus = %+v", byStatus)
	}

	byLabel := repo.FindMessagesByLabel(ports.Label{Type: ports.LabelSent})
	if len(byLabel) != 1 {
		t.Fatalf("FindMessagesByLabel = %+v", byLabel)
	}

	if err := repo.Remove(msg); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if got := repo.FindMessagesByStatus(ports.StatusSent, addr); len(got) != 0 {
		t.Fatalf("message still present after Remove: %+v", got)
	}
}
