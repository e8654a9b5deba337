package wireobj

import "github.com/wirebit/bitmesh/pkg/wire"

// GetpubkeyV3 requests a pubkey by its RIPE digest, used for address
// versions 2 and 3 where the RIPE itself is carried on the wire.
type GetpubkeyV3 struct {
	Ripe [20]byte
}

// Encode returns the GetpubkeyV3 payload bytes.
func (g *GetpubkeyV3) Encode() []byte {
	w := wire.NewWriter(20)
	w.WriteBytes(g.Ripe[:])
	return w.Bytes()
}

// DecodeGetpubkeyV3 parses a GetpubkeyV3 payload.
func DecodeGetpubkeyV3(data []byte) (*GetpubkeyV3, error) {
	r := wire.NewReader(data)
	ripe, err := r.ReadBytes(20)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	var g GetpubkeyV3
	copy(g.Ripe[:], ripe)
	return &g, nil
}

// GetpubkeyV4 requests a pubkey by its 32-byte routing tag, used for
// address version 4 and later, which never reveal their RIPE digest
// on the wire (spec.md §4.7: "for v4+ addresses the 32-byte tag
// identifies the target").
type GetpubkeyV4 struct {
	Tag [32]byte
}

// Encode returns the GetpubkeyV4 payload bytes.
func (g *GetpubkeyV4) Encode() []byte {
	w := wire.NewWriter(32)
	w.WriteBytes(g.Tag[:])
	return w.Bytes()
}

// DecodeGetpubkeyV4 parses a GetpubkeyV4 payload.
func DecodeGetpubkeyV4(data []byte) (*GetpubkeyV4, error) {
	r := wire.NewReader(data)
	tag, err := r.ReadBytes(32)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	var g GetpubkeyV4
	copy(g.Tag[:], tag)
	return &g, nil
}
