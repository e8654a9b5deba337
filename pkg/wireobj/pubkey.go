package wireobj

import (
	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/wire"
)

// PubkeyV2 is the unsigned, unencrypted pubkey body carried by address
// version 2: a behavior bitfield and the two raw public keys.
type PubkeyV2 struct {
	Behavior      uint32
	SigningPub    [64]byte
	EncryptionPub [64]byte
}

func (p *PubkeyV2) encodeBody(w *wire.Writer) {
	w.WriteUint32(p.Behavior)
	w.WriteBytes(p.SigningPub[:])
	w.WriteBytes(p.EncryptionPub[:])
}

// Encode returns the PubkeyV2 payload bytes.
func (p *PubkeyV2) Encode() []byte {
	w := wire.NewWriter(4 + 64 + 64)
	p.encodeBody(w)
	return w.Bytes()
}

func decodePubkeyV2Body(r *wire.Reader) (*PubkeyV2, error) {
	behavior, err := r.ReadUint32()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	signingPub, err := r.ReadBytes(64)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	encryptionPub, err := r.ReadBytes(64)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	p := &PubkeyV2{Behavior: behavior}
	copy(p.SigningPub[:], signingPub)
	copy(p.EncryptionPub[:], encryptionPub)
	return p, nil
}

// DecodePubkeyV2 parses a PubkeyV2 payload.
func DecodePubkeyV2(data []byte) (*PubkeyV2, error) {
	return decodePubkeyV2Body(wire.NewReader(data))
}

// PubkeyV3 adds the PoW parameters the sender expects for objects
// addressed to it, and a signature over the whole body.
type PubkeyV3 struct {
	PubkeyV2
	NonceTrialsPerByte uint64
	ExtraBytes         uint64
	Signature          []byte
}

// bodyWithoutSignature returns the PubkeyV2 fields plus the PoW
// parameters, the preimage body for signing (the signature field
// itself is excluded, per spec.md §4.4).
func (p *PubkeyV3) bodyWithoutSignature() []byte {
	w := wire.NewWriter(4 + 64 + 64 + 2*wire.MaxVarintLen)
	p.encodeBody(w)
	w.WriteVarint(p.NonceTrialsPerByte)
	w.WriteVarint(p.ExtraBytes)
	return w.Bytes()
}

// Encode returns the full PubkeyV3 payload bytes, signature included.
func (p *PubkeyV3) Encode() []byte {
	w := wire.NewWriter(0)
	w.WriteBytes(p.bodyWithoutSignature())
	w.WriteVarBytes(p.Signature)
	return w.Bytes()
}

// Sign computes and stores p.Signature for the given object envelope.
// tag is non-nil only when this body will end up enveloped as a v4
// pubkey, whose preimage is prefixed by the routing tag.
func (p *PubkeyV3) Sign(priv *bmcrypto.PrivateKey, o *ObjectMessage, tag *[32]byte) error {
	sig, err := Sign(priv, o, tag, p.bodyWithoutSignature())
	if err != nil {
		return err
	}
	p.Signature = sig
	return nil
}

// Verify checks p.Signature against pub for the given object envelope.
func (p *PubkeyV3) Verify(pub *bmcrypto.PublicKey, o *ObjectMessage, tag *[32]byte) bool {
	return Verify(pub, o, tag, p.bodyWithoutSignature(), p.Signature)
}

func decodePubkeyV3Body(r *wire.Reader) (*PubkeyV3, error) {
	v2, err := decodePubkeyV2Body(r)
	if err != nil {
		return nil, err
	}
	nonceTrials, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	extraBytes, err := r.ReadVarint()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	return &PubkeyV3{PubkeyV2: *v2, NonceTrialsPerByte: nonceTrials, ExtraBytes: extraBytes}, nil
}

// DecodePubkeyV3 parses a full (signed) PubkeyV3 payload.
func DecodePubkeyV3(data []byte) (*PubkeyV3, error) {
	r := wire.NewReader(data)
	p, err := decodePubkeyV3Body(r)
	if err != nil {
		return nil, err
	}
	sig, err := r.ReadVarBytes()
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	p.Signature = sig
	return p, nil
}

// PubkeyV4 is a PubkeyV3 body wrapped in a CryptoBox envelope, routed
// by a tag instead of a RIPE digest (spec.md §3: "v4: 32-byte tag ‖
// AES-256-CBC + HMAC envelope of a v3 body").
type PubkeyV4 struct {
	Tag       [32]byte
	Encrypted []byte
}

// Encode returns the PubkeyV4 payload bytes: tag ‖ envelope.
func (p *PubkeyV4) Encode() []byte {
	w := wire.NewWriter(32 + len(p.Encrypted))
	w.WriteBytes(p.Tag[:])
	w.WriteBytes(p.Encrypted)
	return w.Bytes()
}

// DecodePubkeyV4 parses a PubkeyV4 payload.
func DecodePubkeyV4(data []byte) (*PubkeyV4, error) {
	r := wire.NewReader(data)
	tag, err := r.ReadBytes(32)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	rest, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	p := &PubkeyV4{Encrypted: append([]byte(nil), rest...)}
	copy(p.Tag[:], tag)
	return p, nil
}

// SealPubkeyV4 signs inner against priv (the identity's own signing
// key, per spec.md §4.4: "MUST be signed before encryption"), then
// encrypts the result to decryptionPub, producing a PubkeyV4 ready to
// place in an ObjectMessage whose Version/Stream/ExpiresTime are
// already known to o.
func SealPubkeyV4(priv *bmcrypto.PrivateKey, o *ObjectMessage, tag [32]byte, inner *PubkeyV3, decryptionPub *bmcrypto.PublicKey) (*PubkeyV4, error) {
	sig, err := Sign(priv, o, &tag, inner.bodyWithoutSignature())
	if err != nil {
		return nil, err
	}
	inner.Signature = sig

	envelope, err := bmcrypto.SealCryptoBox(decryptionPub, inner.Encode())
	if err != nil {
		return nil, err
	}
	return &PubkeyV4{Tag: tag, Encrypted: envelope}, nil
}

// Open decrypts p with the identity's decryption scalar and returns
// the inner, already-signed PubkeyV3 body. Signature verification is
// left to the caller, which has the sender's pubkey only after this
// call succeeds.
func (p *PubkeyV4) Open(decryptionPriv *bmcrypto.PrivateKey) (*PubkeyV3, error) {
	plaintext, err := bmcrypto.OpenCryptoBox(decryptionPriv, p.Encrypted)
	if err != nil {
		return nil, err
	}
	return DecodePubkeyV3(plaintext)
}
