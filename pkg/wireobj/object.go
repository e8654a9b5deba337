package wireobj

import (
	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/wire"
)

// Object type codes (spec.md §4.4's registry). Codes not in this list
// are preserved opaquely: stored and relayed, never decoded.
const (
	TypeGetpubkey uint32 = 0
	TypePubkey    uint32 = 1
	TypeMsg       uint32 = 2
	TypeBroadcast uint32 = 3
)

// InventoryVector is the 32-byte network-wide identifier of an object:
// the first half of DoubleSHA512 of the object's full wire bytes.
type InventoryVector [32]byte

// ObjectMessage is the network-flooded unit (spec.md §3): a
// proof-of-work nonce, an expiry, a type/version/stream tag, and a
// type-specific payload. Payload is kept as raw bytes alongside any
// parsed variant so writeBytesToSign and the inventory vector can be
// recomputed byte-exact even for object types this package has no
// typed variant for.
type ObjectMessage struct {
	Nonce       uint64
	ExpiresTime int64
	ObjectType  uint32
	Version     uint64
	Stream      uint64
	Payload     []byte
}

// bodyBytes returns everything after the nonce: expiresTime ‖
// objectType ‖ version ‖ stream ‖ payload. This is both the suffix
// hashed for the proof-of-work initialHash and the tail of the full
// wire encoding.
func (o *ObjectMessage) bodyBytes() []byte {
	w := wire.NewWriter(8 + 4 + 2*wire.MaxVarintLen + len(o.Payload))
	w.WriteInt64(o.ExpiresTime)
	w.WriteUint32(o.ObjectType)
	w.WriteVarint(o.Version)
	w.WriteVarint(o.Stream)
	w.WriteBytes(o.Payload)
	return w.Bytes()
}

// Encode serializes the full object: nonce ‖ body.
func (o *ObjectMessage) Encode() []byte {
	w := wire.NewWriter(8 + len(o.Payload) + 32)
	w.WriteUint64(o.Nonce)
	w.WriteBytes(o.bodyBytes())
	return w.Bytes()
}

// InitialHash computes SHA-512 of the object's bytes without its
// nonce, the value the proof-of-work search treats as fixed while
// searching over nonce (spec.md §4.5).
func (o *ObjectMessage) InitialHash() [64]byte {
	return bmcrypto.SHA512(o.bodyBytes())
}

// InventoryVector computes the object's IV: the first 32 bytes of
// DoubleSHA512 of the object's full wire bytes (nonce included).
func (o *ObjectMessage) InventoryVector() InventoryVector {
	d := bmcrypto.DoubleSHA512(o.Encode())
	var iv InventoryVector
	copy(iv[:], d[:32])
	return iv
}

// DecodeObjectMessage parses an ObjectMessage from a payload already
// extracted from an "object" frame (see pkg/wire.Frame).
func DecodeObjectMessage(data []byte) (*ObjectMessage, error) {
	r := wire.NewReader(data)

	nonce, err := r.ReadUint64()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	expiresTime, err := r.ReadInt64()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	objectType, err := r.ReadUint32()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	version, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	stream, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	payload, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return nil, ErrTruncatedPayload
	}

	payloadCopy := make([]byte, len(payload))
	copy(payloadCopy, payload)

	return &ObjectMessage{
		Nonce:       nonce,
		ExpiresTime: expiresTime,
		ObjectType:  objectType,
		Version:     version,
		Stream:      stream,
		Payload:     payloadCopy,
	}, nil
}
