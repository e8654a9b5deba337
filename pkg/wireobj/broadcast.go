package wireobj

import (
	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/wire"
)

// BroadcastPlaintext is the decrypted body of a BROADCAST object.
// Unlike MsgPlaintext it carries no destination (broadcasts have no
// single recipient) and no ackData (nothing to acknowledge).
type BroadcastPlaintext struct {
	SenderAddressVersion uint64
	SenderStream         uint64
	Behavior             uint32
	SigningPub           [64]byte
	EncryptionPub        [64]byte
	NonceTrialsPerByte   uint64
	ExtraBytes           uint64
	Encoding             uint64
	Subject              []byte
	Body                 []byte
	Signature            []byte
}

func (b *BroadcastPlaintext) bodyWithoutSignature() []byte {
	w := wire.NewWriter(256)
	w.WriteVarint(b.SenderAddressVersion)
	w.WriteVarint(b.SenderStream)
	w.WriteUint32(b.Behavior)
	w.WriteBytes(b.SigningPub[:])
	w.WriteBytes(b.EncryptionPub[:])
	w.WriteVarint(b.NonceTrialsPerByte)
	w.WriteVarint(b.ExtraBytes)
	w.WriteVarint(b.Encoding)
	w.WriteVarBytes(b.Subject)
	w.WriteVarBytes(b.Body)
	return w.Bytes()
}

// Encode returns the full plaintext encoding, signature included.
func (b *BroadcastPlaintext) Encode() []byte {
	w := wire.NewWriter(0)
	w.WriteBytes(b.bodyWithoutSignature())
	w.WriteVarBytes(b.Signature)
	return w.Bytes()
}

// DecodeBroadcastPlaintext parses a decrypted BROADCAST plaintext.
func DecodeBroadcastPlaintext(data []byte) (*BroadcastPlaintext, error) {
	r := wire.NewReader(data)
	b := &BroadcastPlaintext{}

	var err error
	if b.SenderAddressVersion, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if b.SenderStream, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if b.Behavior, err = r.ReadUint32(); err != nil {
		return nil, ErrTruncatedPayload
	}
	signingPub, err := r.ReadBytes(64)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	copy(b.SigningPub[:], signingPub)
	encryptionPub, err := r.ReadBytes(64)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	copy(b.EncryptionPub[:], encryptionPub)
	if b.NonceTrialsPerByte, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if b.ExtraBytes, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if b.Encoding, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if b.Subject, err = r.ReadVarBytes(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if b.Body, err = r.ReadVarBytes(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if b.Signature, err = r.ReadVarBytes(); err != nil {
		return nil, ErrTruncatedPayload
	}
	return b, nil
}

// Sign computes and stores b.Signature. tag is non-nil only for v5
// broadcasts, whose preimage is prefixed by the sender's routing tag
// (spec.md §4.4).
func (b *BroadcastPlaintext) Sign(priv *bmcrypto.PrivateKey, o *ObjectMessage, tag *[32]byte) error {
	sig, err := Sign(priv, o, tag, b.bodyWithoutSignature())
	if err != nil {
		return err
	}
	b.Signature = sig
	return nil
}

// Verify checks b.Signature against pub for the given object envelope.
func (b *BroadcastPlaintext) Verify(pub *bmcrypto.PublicKey, o *ObjectMessage, tag *[32]byte) bool {
	return Verify(pub, o, tag, b.bodyWithoutSignature(), b.Signature)
}

// BroadcastKeyFromScalar builds the deterministic CryptoBox keypair a
// broadcast is encrypted to: subscribers derive the same scalar from
// the sender's address (spec.md §4.4's doubleSha512(version‖stream‖ripe)
// construction, computed by pkg/address.CalculateDecryptionKey) without
// needing an out-of-band key exchange.
func BroadcastKeyFromScalar(scalar [32]byte) (*bmcrypto.PrivateKey, error) {
	return bmcrypto.NewPrivateKey(scalar[:])
}

// SealBroadcastV4 signs b then encrypts it under the sender-derived
// broadcast key, producing the payload a TypeBroadcast object of
// version 4 carries (no tag prefix on the wire).
func SealBroadcastV4(priv *bmcrypto.PrivateKey, o *ObjectMessage, b *BroadcastPlaintext, broadcastKey *bmcrypto.PrivateKey) ([]byte, error) {
	if err := b.Sign(priv, o, nil); err != nil {
		return nil, err
	}
	return bmcrypto.SealCryptoBox(broadcastKey.Public(), b.Encode())
}

// SealBroadcastV5 signs b (preimage prefixed by tag) then encrypts it
// under the sender-derived broadcast key, returning tag ‖ envelope,
// the payload a TypeBroadcast object of version 5 carries.
func SealBroadcastV5(priv *bmcrypto.PrivateKey, o *ObjectMessage, tag [32]byte, b *BroadcastPlaintext, broadcastKey *bmcrypto.PrivateKey) ([]byte, error) {
	if err := b.Sign(priv, o, &tag); err != nil {
		return nil, err
	}
	envelope, err := bmcrypto.SealCryptoBox(broadcastKey.Public(), b.Encode())
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter(32 + len(envelope))
	w.WriteBytes(tag[:])
	w.WriteBytes(envelope)
	return w.Bytes(), nil
}

// OpenBroadcastV4 decrypts a version-4 broadcast payload (no tag
// prefix) under the subscription's broadcast key.
func OpenBroadcastV4(broadcastKey *bmcrypto.PrivateKey, payload []byte) (*BroadcastPlaintext, error) {
	plaintext, err := bmcrypto.OpenCryptoBox(broadcastKey, payload)
	if err != nil {
		return nil, err
	}
	return DecodeBroadcastPlaintext(plaintext)
}

// SplitBroadcastV5 separates a version-5 broadcast payload into its
// routing tag and CryptoBox envelope, so the caller can match the tag
// against subscriptions before attempting the (comparatively
// expensive) decryption.
func SplitBroadcastV5(payload []byte) (tag [32]byte, envelope []byte, err error) {
	r := wire.NewReader(payload)
	t, err := r.ReadBytes(32)
	if err != nil {
		return tag, nil, ErrTruncatedPayload
	}
	copy(tag[:], t)
	rest, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return tag, nil, ErrTruncatedPayload
	}
	return tag, rest, nil
}

// OpenBroadcastV5 decrypts a version-5 broadcast envelope (the tag
// already split off by SplitBroadcastV5) under the subscription's
// broadcast key.
func OpenBroadcastV5(broadcastKey *bmcrypto.PrivateKey, envelope []byte) (*BroadcastPlaintext, error) {
	plaintext, err := bmcrypto.OpenCryptoBox(broadcastKey, envelope)
	if err != nil {
		return nil, err
	}
	return DecodeBroadcastPlaintext(plaintext)
}
