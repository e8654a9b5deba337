package netpeer

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/wirebit/bitmesh/pkg/inventory"
	"github.com/wirebit/bitmesh/pkg/noderegistry"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// floodFanout is how many other active peers an accepted object is
// re-advertised to (spec.md §4.6: "advertises to up to 8 other random
// active peers").
const floodFanout = 8

// ManagerConfig configures a Manager. Mirrors the teacher's
// TCPConfig/ManagerConfig pattern: required collaborators plus
// optional listener injection for tests.
type ManagerConfig struct {
	ListenAddr string
	Listener   net.Listener

	Streams   []uint64
	UserAgent string

	Inventory *inventory.Table
	Registry  *noderegistry.Registry

	// OnObjectAccepted is invoked whenever a newly accepted object is
	// stored, after it has already been flooded to peers, so callers
	// can additionally drive the send/receive pipeline.
	OnObjectAccepted func(obj *wireobj.ObjectMessage)

	LoggerFactory logging.LoggerFactory
}

// Manager owns the set of live connections and drives the gossip
// behavior spec.md §4.6 assigns to an ACTIVE connection: addr/inv
// announcement, getdata service, and flood relay.
type Manager struct {
	cfg      ManagerConfig
	ourNonce uint64

	listener net.Listener

	mu    sync.RWMutex
	conns map[*Connection]struct{}

	log logging.LeveledLogger

	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewManager constructs a Manager from config.
func NewManager(config ManagerConfig) (*Manager, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}

	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("netpeer")
	} else {
		log = logging.NewDefaultLoggerFactory().NewLogger("netpeer")
	}

	return &Manager{
		cfg:      config,
		ourNonce: nonce,
		conns:    make(map[*Connection]struct{}),
		log:      log,
		closeCh:  make(chan struct{}),
	}, nil
}

func randomNonce() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// Start begins listening for inbound connections, if a listener or
// listen address was configured.
func (m *Manager) Start() error {
	if m.listener != nil {
		return ErrClosed
	}

	l := m.cfg.Listener
	if l == nil && m.cfg.ListenAddr != "" {
		var err error
		l, err = net.Listen("tcp", m.cfg.ListenAddr)
		if err != nil {
			return err
		}
	}
	if l == nil {
		return nil
	}
	m.listener = l

	go m.acceptLoop()
	return nil
}

// Stop closes the listener and every live connection.
func (m *Manager) Stop() error {
	m.closeOnce.Do(func() {
		close(m.closeCh)
		if m.listener != nil {
			m.listener.Close()
		}
	})

	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.conns))
	for c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	return nil
}

func (m *Manager) acceptLoop() {
	for {
		conn, err := m.listener.Accept()
		if err != nil {
			select {
			case <-m.closeCh:
				return
			default:
				m.log.Errorf("accept failed: %v", err)
				return
			}
		}
		m.adopt(conn, false)
	}
}

// Connect dials a peer and begins its handshake.
func (m *Manager) Connect(ctx context.Context, addr string) (*Connection, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return m.adopt(conn, true), nil
}

// AdoptConn wraps an already-established net.Conn (used by tests with
// net.Pipe, mirroring the teacher's AddConnection test hook).
func (m *Manager) AdoptConn(conn net.Conn, outbound bool) *Connection {
	return m.adopt(conn, outbound)
}

func (m *Manager) adopt(conn net.Conn, outbound bool) *Connection {
	c := NewConnection(Config{
		Conn:          conn,
		Outbound:      outbound,
		OurNonce:      m.ourNonce,
		OurStreams:    m.cfg.Streams,
		UserAgent:     m.cfg.UserAgent,
		LoggerFactory: m.cfg.LoggerFactory,
		Callbacks: Callbacks{
			OnActive:     m.onActive,
			OnAddr:       m.onAddr,
			OnInv:        m.onInv,
			OnGetdata:    m.onGetdata,
			OnObject:     m.onObject,
			OnDisconnect: m.onDisconnect,
		},
	})

	m.mu.Lock()
	m.conns[c] = struct{}{}
	m.mu.Unlock()

	if err := c.Start(); err != nil {
		m.log.Warnf("starting connection to %s failed: %v", conn.RemoteAddr(), err)
		c.Close()
	}
	return c
}

func (m *Manager) onActive(c *Connection) {
	m.log.Debugf("connection to %s is now ACTIVE", c.RemoteAddr())

	if m.cfg.Registry != nil {
		host, port := splitHostPort(c.RemoteAddr())
		m.cfg.Registry.Touch(host, port, c.PeerStreams)
	}

	if m.cfg.Registry != nil {
		peers := m.cfg.Registry.KnownAddresses(1000, c.PeerStreams)
		addrs := make([]NetworkAddress, 0, len(peers))
		for _, p := range peers {
			addrs = append(addrs, NetworkAddress{IP: net.ParseIP(p.Host), Port: p.Port})
		}
		c.SendAddr(addrs)
	}

	if m.cfg.Inventory != nil {
		c.SendInv(m.cfg.Inventory.Vectors(c.PeerStreams))
	}
}

func (m *Manager) onAddr(c *Connection, peers []NetworkAddress) {
	if m.cfg.Registry == nil {
		return
	}
	converted := make([]noderegistry.Peer, 0, len(peers))
	for _, p := range peers {
		converted = append(converted, noderegistry.Peer{
			Host:    p.IP.String(),
			Port:    p.Port,
			Streams: c.PeerStreams,
		})
	}
	m.cfg.Registry.Offer(converted)
}

func (m *Manager) onInv(c *Connection, ivs []wireobj.InventoryVector) {
	if m.cfg.Inventory == nil {
		return
	}
	var missing []wireobj.InventoryVector
	for _, iv := range ivs {
		if !m.cfg.Inventory.Have(iv) {
			missing = append(missing, iv)
		}
	}
	if len(missing) > 0 {
		c.SendGetdata(missing)
	}
}

func (m *Manager) onGetdata(c *Connection, ivs []wireobj.InventoryVector) {
	if m.cfg.Inventory == nil {
		return
	}
	for _, iv := range ivs {
		if obj, ok := m.cfg.Inventory.Get(iv); ok {
			c.SendObject(obj)
		}
	}
}

func (m *Manager) onObject(c *Connection, obj *wireobj.ObjectMessage) {
	if m.cfg.Inventory == nil {
		return
	}
	iv, err := m.cfg.Inventory.Store(obj)
	if err != nil {
		if err == inventory.ErrPowInvalid {
			m.log.Warnf("disconnecting %s: %v", c.RemoteAddr(), err)
			c.Close()
		}
		return
	}

	m.floodExcept(c, iv, obj)

	if m.cfg.OnObjectAccepted != nil {
		m.cfg.OnObjectAccepted(obj)
	}
}

// Publish advertises a locally originated object to up to floodFanout
// randomly chosen active peers, the same way an object received from
// one peer is relayed to the others.
func (m *Manager) Publish(obj *wireobj.ObjectMessage) {
	m.floodExcept(nil, obj.InventoryVector(), obj)
}

func (m *Manager) onDisconnect(c *Connection, err error) {
	m.mu.Lock()
	delete(m.conns, c)
	m.mu.Unlock()
}

// floodExcept re-advertises iv's inventory vector to up to
// floodFanout randomly chosen ACTIVE connections, other than the one
// it arrived on.
func (m *Manager) floodExcept(origin *Connection, iv wireobj.InventoryVector, obj *wireobj.ObjectMessage) {
	m.mu.RLock()
	candidates := make([]*Connection, 0, len(m.conns))
	for c := range m.conns {
		if c == origin || c.State() != StateActive {
			continue
		}
		candidates = append(candidates, c)
	}
	m.mu.RUnlock()

	shuffle(candidates)
	if len(candidates) > floodFanout {
		candidates = candidates[:floodFanout]
	}

	for _, c := range candidates {
		c.SendInv([]wireobj.InventoryVector{iv})
	}
}

func shuffle(c []*Connection) {
	for i := len(c) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			continue
		}
		j := int(jBig.Int64())
		c[i], c[j] = c[j], c[i]
	}
}

func splitHostPort(addr net.Addr) (string, uint16) {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	var port uint16
	for _, ch := range portStr {
		if ch < '0' || ch > '9' {
			break
		}
		port = port*10 + uint16(ch-'0')
	}
	return host, port
}

// Synchronize performs a one-shot handshake-then-gossip operation:
// connect, let the handshake and inv/getdata exchange run in the
// background, then disconnect when timeout elapses or ctx is
// cancelled. It does not detect that the peer's inventory is
// exhausted; the connection stays open for the whole timeout.
func (m *Manager) Synchronize(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c, err := m.Connect(ctx, addr)
	if err != nil {
		return err
	}
	defer c.Close()

	<-ctx.Done()
	return nil
}
