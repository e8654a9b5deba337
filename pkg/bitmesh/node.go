package bitmesh

import (
	"context"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/wirebit/bitmesh/pkg/address"
	"github.com/wirebit/bitmesh/pkg/inventory"
	"github.com/wirebit/bitmesh/pkg/netpeer"
	"github.com/wirebit/bitmesh/pkg/noderegistry"
	"github.com/wirebit/bitmesh/pkg/pipeline"
	"github.com/wirebit/bitmesh/pkg/ports"
	"github.com/wirebit/bitmesh/pkg/pow"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// NodeState is the lifecycle state of a Node.
type NodeState int

const (
	NodeStateStopped NodeState = iota
	NodeStateStarting
	NodeStateRunning
	NodeStateStopping
)

// String implements fmt.Stringer.
func (s NodeState) String() string {
	switch s {
	case NodeStateStopped:
		return "Stopped"
	case NodeStateStarting:
		return "Starting"
	case NodeStateRunning:
		return "Running"
	case NodeStateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

// DefaultUserAgent identifies this implementation on the wire, in the
// slash-delimited form other Bitmessage nodes expect.
const DefaultUserAgent = "/bitmesh:0.1.0/"

// NodeConfig configures a Node. Addresses and Messages are the only
// required fields; everything else defaults the way pkg/pow,
// pkg/inventory, and pkg/netpeer already default their own configs.
type NodeConfig struct {
	ListenAddr string
	Streams    []uint64
	UserAgent  string

	// SeedPeers are dialed once at Start, to bootstrap inventory and
	// peer knowledge on a freshly started node.
	SeedPeers []string

	Addresses ports.AddressRepository
	Messages  ports.MessageRepository

	PoWWorkers int

	Now            func() time.Time
	LoggerFactory  logging.LoggerFactory
	OnStateChanged func(NodeState)
	Listener       ports.Listener
}

// Node is a running Bitmessage protocol engine instance, wiring
// together the object model, proof-of-work, inventory, gossip, and
// send/receive pipeline packages.
type Node struct {
	cfg NodeConfig
	now func() time.Time
	log logging.LeveledLogger

	inventory *inventory.Table
	registry  *noderegistry.Registry
	powEngine *pow.Engine
	net       *netpeer.Manager
	pipeline  *pipeline.Pipeline

	mu     sync.Mutex
	state  NodeState
	cancel context.CancelFunc
}

// NewNode constructs a Node from config. It does not start listening
// or connecting; call Start for that.
func NewNode(config NodeConfig) (*Node, error) {
	if config.Addresses == nil {
		return nil, ErrNoAddressRepository
	}
	if config.Messages == nil {
		return nil, ErrNoMessageRepository
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("bitmesh")
	} else {
		log = logging.NewDefaultLoggerFactory().NewLogger("bitmesh")
	}

	inv := inventory.NewTable(inventory.Config{
		Streams:       config.Streams,
		Now:           now,
		LoggerFactory: config.LoggerFactory,
	})
	registry := noderegistry.NewRegistry(noderegistry.Config{Now: now})
	powEngine := pow.NewEngine(pow.Config{
		Workers:       config.PoWWorkers,
		LoggerFactory: config.LoggerFactory,
	})

	n := &Node{
		cfg:       config,
		now:       now,
		log:       log,
		inventory: inv,
		registry:  registry,
		powEngine: powEngine,
	}

	netManager, err := netpeer.NewManager(netpeer.ManagerConfig{
		ListenAddr:       config.ListenAddr,
		Streams:          config.Streams,
		UserAgent:        userAgent,
		Inventory:        inv,
		Registry:         registry,
		OnObjectAccepted: n.onObjectAccepted,
		LoggerFactory:    config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}
	n.net = netManager

	n.pipeline = pipeline.New(pipeline.Config{
		Addresses:     config.Addresses,
		Messages:      config.Messages,
		Inventory:     inv,
		PoW:           powEngine,
		Publish:       netManager.Publish,
		Listener:      config.Listener,
		Now:           now,
		LoggerFactory: config.LoggerFactory,
	})

	return n, nil
}

func (n *Node) setState(s NodeState) {
	n.mu.Lock()
	n.state = s
	n.mu.Unlock()
	if n.cfg.OnStateChanged != nil {
		n.cfg.OnStateChanged(s)
	}
}

// State returns the node's current lifecycle state.
func (n *Node) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Start begins listening for inbound connections and dials every
// configured seed peer.
func (n *Node) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.state != NodeStateStopped {
		n.mu.Unlock()
		return ErrAlreadyRunning
	}
	n.mu.Unlock()

	n.setState(NodeStateStarting)

	runCtx, cancel := context.WithCancel(ctx)
	n.mu.Lock()
	n.cancel = cancel
	n.mu.Unlock()

	if err := n.net.Start(); err != nil {
		cancel()
		n.setState(NodeStateStopped)
		return err
	}

	for _, addr := range n.cfg.SeedPeers {
		if _, err := n.net.Connect(runCtx, addr); err != nil {
			n.log.Warnf("connecting to seed peer %s: %v", addr, err)
		}
	}

	n.setState(NodeStateRunning)
	return nil
}

// Stop closes every connection and stops listening.
func (n *Node) Stop() error {
	n.mu.Lock()
	if n.state != NodeStateRunning && n.state != NodeStateStarting {
		n.mu.Unlock()
		return ErrNotRunning
	}
	cancel := n.cancel
	n.mu.Unlock()

	n.setState(NodeStateStopping)
	if cancel != nil {
		cancel()
	}
	err := n.net.Stop()
	n.setState(NodeStateStopped)
	return err
}

// SendMessage sends an encrypted MSG to to, on behalf of identity from.
func (n *Node) SendMessage(ctx context.Context, from ports.Identity, to *address.Address, subject, body []byte) (*ports.StoredMessage, error) {
	return n.pipeline.SendMessage(ctx, from, to, subject, body)
}

// SendBroadcast sends an encrypted BROADCAST on behalf of identity from.
func (n *Node) SendBroadcast(ctx context.Context, from ports.Identity, subject, body []byte) (*ports.StoredMessage, error) {
	return n.pipeline.SendBroadcast(ctx, from, subject, body)
}

// Synchronize performs a one-shot connect-handshake-gossip-disconnect
// cycle against addr (spec.md §4.6).
func (n *Node) Synchronize(ctx context.Context, addr string, timeout time.Duration) error {
	return n.net.Synchronize(ctx, addr, timeout)
}

// Cleanup evicts expired objects from the inventory, returning the
// number removed. Callers typically run this on a periodic timer.
func (n *Node) Cleanup() int {
	return n.inventory.Cleanup()
}

func (n *Node) onObjectAccepted(obj *wireobj.ObjectMessage) {
	n.pipeline.HandleObject(context.Background(), obj)
}
