package netpeer

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/wirebit/bitmesh/pkg/wire"
	"github.com/wirebit/bitmesh/pkg/wireobj"
)

// DefaultIdleTimeout is the connectionTTL of spec.md §4.6: idle ACTIVE
// connections with no traffic are closed after this long.
const DefaultIdleTimeout = 30 * time.Minute

// maxClockSkew bounds how far a peer's version timestamp may drift
// from our own clock before the handshake is rejected.
const maxClockSkew = 3600 * time.Second

// Callbacks are invoked from the connection's read loop as frames
// arrive. Implementations should not block; dispatch to a goroutine or
// channel if real work is required.
type Callbacks struct {
	OnActive     func(c *Connection)
	OnAddr       func(c *Connection, peers []NetworkAddress)
	OnInv        func(c *Connection, ivs []wireobj.InventoryVector)
	OnGetdata    func(c *Connection, ivs []wireobj.InventoryVector)
	OnObject     func(c *Connection, obj *wireobj.ObjectMessage)
	OnDisconnect func(c *Connection, err error)
}

// Config configures a Connection.
type Config struct {
	Conn       net.Conn
	Outbound   bool
	OurNonce   uint64
	OurStreams []uint64
	UserAgent  string

	IdleTimeout time.Duration
	Now         func() time.Time

	LoggerFactory logging.LoggerFactory
	Callbacks     Callbacks
}

// Connection is a single peer connection driven through
// spec.md §4.6's handshake and gossip state machine.
type Connection struct {
	conn     net.Conn
	reader   *wire.StreamReader
	writer   *wire.StreamWriter
	writeMu  sync.Mutex
	outbound bool

	ourNonce   uint64
	ourStreams []uint64
	userAgent  string

	mu           sync.Mutex
	state        State
	sentVerack   bool
	recvVerack   bool
	peerNonce    uint64
	PeerStreams  []uint64
	PeerUA       string
	lastActivity time.Time

	idleTimeout time.Duration
	now         func() time.Time

	log       logging.LeveledLogger
	callbacks Callbacks

	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewConnection wraps conn in a Connection, ready for Start.
func NewConnection(config Config) *Connection {
	idleTimeout := config.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	var log logging.LeveledLogger
	if config.LoggerFactory != nil {
		log = config.LoggerFactory.NewLogger("netpeer")
	} else {
		log = logging.NewDefaultLoggerFactory().NewLogger("netpeer")
	}

	return &Connection{
		conn:         config.Conn,
		reader:       wire.NewStreamReader(config.Conn),
		writer:       wire.NewStreamWriter(config.Conn),
		outbound:     config.Outbound,
		ourNonce:     config.OurNonce,
		ourStreams:   config.OurStreams,
		userAgent:    config.UserAgent,
		state:        StateConnecting,
		lastActivity: now(),
		idleTimeout:  idleTimeout,
		now:          now,
		log:          log,
		callbacks:    config.Callbacks,
		closeCh:      make(chan struct{}),
	}
}

// State returns the connection's current state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RemoteAddr returns the underlying connection's remote address.
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Start sends our version (outbound connections only) and begins the
// read loop. It returns as soon as the version has been written and
// the read loop launched, without waiting for the handshake; the
// OnActive callback reports when the connection reaches ACTIVE, and
// the read loop continues in the background until Close or an error
// terminates it.
func (c *Connection) Start() error {
	if c.outbound {
		if err := c.sendVersion(); err != nil {
			return err
		}
		c.mu.Lock()
		c.state = StateVersionSent
		c.mu.Unlock()
	}

	go c.idleWatch()
	go c.readLoop()
	return nil
}

// Close terminates the connection, idempotently.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateDisconnected
		c.mu.Unlock()
		close(c.closeCh)
		c.conn.Close()
	})
	return nil
}

func (c *Connection) sendVersion() error {
	v := &VersionMessage{
		Protocol:  ProtocolVersion,
		Services:  0,
		Timestamp: c.now().Unix(),
		Recipient: NetworkAddress{},
		Sender:    NetworkAddress{},
		Nonce:     c.ourNonce,
		UserAgent: c.userAgent,
		Streams:   c.ourStreams,
	}
	return c.sendFrame(CommandVersion, v.Encode())
}

func (c *Connection) sendFrame(command string, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writer.WriteFrame(&wire.Frame{Command: command, Payload: payload})
}

// SendAddr advertises peers (spec.md §4.6: up to 1000 known peers).
func (c *Connection) SendAddr(peers []NetworkAddress) error {
	w := wire.NewWriter(0)
	w.WriteVarint(uint64(len(peers)))
	for _, p := range peers {
		p.encode(w)
	}
	return c.sendFrame(CommandAddr, w.Bytes())
}

// SendInv advertises inventory vectors.
func (c *Connection) SendInv(ivs []wireobj.InventoryVector) error {
	w := wire.NewWriter(0)
	w.WriteVarint(uint64(len(ivs)))
	for _, iv := range ivs {
		w.WriteBytes(iv[:])
	}
	return c.sendFrame(CommandInv, w.Bytes())
}

// SendGetdata requests objects by inventory vector.
func (c *Connection) SendGetdata(ivs []wireobj.InventoryVector) error {
	w := wire.NewWriter(0)
	w.WriteVarint(uint64(len(ivs)))
	for _, iv := range ivs {
		w.WriteBytes(iv[:])
	}
	return c.sendFrame(CommandGetdata, w.Bytes())
}

// SendObject streams a single object to the peer.
func (c *Connection) SendObject(obj *wireobj.ObjectMessage) error {
	return c.sendFrame(CommandObject, obj.Encode())
}

func decodeIVList(payload []byte) ([]wireobj.InventoryVector, error) {
	r := wire.NewReader(payload)
	count, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncated
	}
	if count > uint64(r.Remaining()/32) {
		return nil, ErrTruncated
	}
	out := make([]wireobj.InventoryVector, count)
	for i := range out {
		b, err := r.ReadBytes(32)
		if err != nil {
			return nil, ErrTruncated
		}
		copy(out[i][:], b)
	}
	return out, nil
}

func decodeAddrList(payload []byte) ([]NetworkAddress, error) {
	r := wire.NewReader(payload)
	count, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncated
	}
	out := make([]NetworkAddress, 0, count)
	for i := uint64(0); i < count; i++ {
		a, err := decodeNetworkAddress(r)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (c *Connection) readLoop() {
	var terminalErr error
	defer func() {
		c.Close()
		if c.callbacks.OnDisconnect != nil {
			c.callbacks.OnDisconnect(c, terminalErr)
		}
	}()

	for {
		frame, err := c.reader.ReadFrame()
		if err != nil {
			terminalErr = err
			return
		}

		c.mu.Lock()
		c.lastActivity = c.now()
		c.mu.Unlock()

		if err := c.handleFrame(frame); err != nil {
			c.log.Warnf("disconnecting peer %s: %v", c.conn.RemoteAddr(), err)
			terminalErr = err
			return
		}
	}
}

func (c *Connection) handleFrame(frame *wire.Frame) error {
	switch frame.Command {
	case CommandVersion:
		return c.handleVersion(frame.Payload)
	case CommandVerack:
		return c.handleVerack()
	case CommandAddr:
		peers, err := decodeAddrList(frame.Payload)
		if err != nil {
			return err
		}
		if c.callbacks.OnAddr != nil {
			c.callbacks.OnAddr(c, peers)
		}
		return nil
	case CommandInv:
		ivs, err := decodeIVList(frame.Payload)
		if err != nil {
			return err
		}
		if c.callbacks.OnInv != nil {
			c.callbacks.OnInv(c, ivs)
		}
		return nil
	case CommandGetdata:
		ivs, err := decodeIVList(frame.Payload)
		if err != nil {
			return err
		}
		if c.callbacks.OnGetdata != nil {
			c.callbacks.OnGetdata(c, ivs)
		}
		return nil
	case CommandObject:
		obj, err := wireobj.DecodeObjectMessage(frame.Payload)
		if err != nil {
			return fmt.Errorf("decoding object: %w", err)
		}
		if c.callbacks.OnObject != nil {
			c.callbacks.OnObject(c, obj)
		}
		return nil
	case CommandCustom:
		return nil
	default:
		return ErrUnknownCommand
	}
}

func (c *Connection) handleVersion(payload []byte) error {
	v, err := DecodeVersionMessage(payload)
	if err != nil {
		return err
	}

	if v.Nonce == c.ourNonce {
		return ErrSelfConnect
	}
	if v.Protocol < ProtocolVersion {
		return ErrProtocolTooOld
	}
	if !shareStream(v.Streams, c.ourStreams) {
		return ErrNoSharedStream
	}
	skew := c.now().Unix() - v.Timestamp
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > maxClockSkew {
		return ErrClockSkew
	}

	c.mu.Lock()
	c.peerNonce = v.Nonce
	c.PeerStreams = v.Streams
	c.PeerUA = v.UserAgent
	notYetSent := c.state == StateConnecting
	c.mu.Unlock()

	// Inbound connections haven't sent their own version yet.
	if notYetSent {
		if err := c.sendVersion(); err != nil {
			return err
		}
	}

	if err := c.sendFrame(CommandVerack, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.state = StateVerified
	c.sentVerack = true
	c.mu.Unlock()

	return c.maybeActivate()
}

func (c *Connection) handleVerack() error {
	c.mu.Lock()
	c.recvVerack = true
	c.mu.Unlock()
	return c.maybeActivate()
}

func (c *Connection) maybeActivate() error {
	c.mu.Lock()
	ready := c.sentVerack && c.recvVerack && c.state != StateActive
	if ready {
		c.state = StateActive
	}
	c.mu.Unlock()

	if ready && c.callbacks.OnActive != nil {
		c.callbacks.OnActive(c)
	}
	return nil
}

func shareStream(a, b []uint64) bool {
	set := make(map[uint64]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	for _, s := range a {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}

func (c *Connection) idleWatch() {
	period := c.idleTimeout / 4
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-c.closeCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			idleFor := c.now().Sub(c.lastActivity)
			active := c.state == StateActive
			c.mu.Unlock()

			if active && idleFor > c.idleTimeout {
				c.log.Debugf("closing idle connection to %s", c.conn.RemoteAddr())
				c.Close()
				return
			}
		}
	}
}
