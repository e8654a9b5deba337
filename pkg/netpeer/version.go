package netpeer

import (
	"net"

	"github.com/wirebit/bitmesh/pkg/wire"
)

// NetworkAddress identifies a peer's services, IP, and port as carried
// inside a version message or an addr batch.
type NetworkAddress struct {
	Services uint64
	IP       net.IP // always rendered as 16 bytes (v4-mapped if needed)
	Port     uint16
}

func (a NetworkAddress) encode(w *wire.Writer) {
	w.WriteUint64(a.Services)
	ip := a.IP.To16()
	if ip == nil {
		ip = make(net.IP, 16)
	}
	w.WriteBytes(ip)
	w.WriteUint16(a.Port)
}

func decodeNetworkAddress(r *wire.Reader) (NetworkAddress, error) {
	services, err := r.ReadUint64()
	if err != nil {
		return NetworkAddress{}, ErrTruncated
	}
	ipBytes, err := r.ReadBytes(16)
	if err != nil {
		return NetworkAddress{}, ErrTruncated
	}
	port, err := r.ReadUint16()
	if err != nil {
		return NetworkAddress{}, ErrTruncated
	}
	ip := make(net.IP, 16)
	copy(ip, ipBytes)
	return NetworkAddress{Services: services, IP: ip, Port: port}, nil
}

// ErrTruncated is pkg/wire.ErrTruncated under netpeer's own name: the
// same error value, so a comparison against either sentinel matches.
var ErrTruncated = wire.ErrTruncated

// VersionMessage is the handshake message sent on entry to
// VERSION_SENT (spec.md §4.6).
type VersionMessage struct {
	Protocol  uint32
	Services  uint64
	Timestamp int64
	Recipient NetworkAddress
	Sender    NetworkAddress
	Nonce     uint64
	UserAgent string
	Streams   []uint64
}

// Encode serializes the version message payload.
func (v *VersionMessage) Encode() []byte {
	w := wire.NewWriter(4 + 8 + 8 + 2*26 + 8 + 16 + 16)
	w.WriteUint32(v.Protocol)
	w.WriteUint64(v.Services)
	w.WriteInt64(v.Timestamp)
	v.Recipient.encode(w)
	v.Sender.encode(w)
	w.WriteUint64(v.Nonce)
	w.WriteVarString(v.UserAgent)
	w.WriteVarintList(v.Streams)
	return w.Bytes()
}

// DecodeVersionMessage parses a version message payload.
func DecodeVersionMessage(data []byte) (*VersionMessage, error) {
	r := wire.NewReader(data)

	protocol, err := r.ReadUint32()
	if err != nil {
		return nil, ErrTruncated
	}
	services, err := r.ReadUint64()
	if err != nil {
		return nil, ErrTruncated
	}
	timestamp, err := r.ReadInt64()
	if err != nil {
		return nil, ErrTruncated
	}
	recipient, err := decodeNetworkAddress(r)
	if err != nil {
		return nil, err
	}
	sender, err := decodeNetworkAddress(r)
	if err != nil {
		return nil, err
	}
	nonce, err := r.ReadUint64()
	if err != nil {
		return nil, ErrTruncated
	}
	userAgent, err := r.ReadVarString()
	if err != nil {
		return nil, ErrTruncated
	}
	streams, err := r.ReadVarintList()
	if err != nil {
		return nil, ErrTruncated
	}

	return &VersionMessage{
		Protocol:  protocol,
		Services:  services,
		Timestamp: timestamp,
		Recipient: recipient,
		Sender:    sender,
		Nonce:     nonce,
		UserAgent: userAgent,
		Streams:   streams,
	}, nil
}
