package wireobj

import (
	"github.com/wirebit/bitmesh/pkg/bmcrypto"
	"github.com/wirebit/bitmesh/pkg/wire"
)

// MsgPlaintext is the decrypted body of a MSG object (spec.md §3's
// plaintext message, restricted to the fields the wire carries). The
// sender's pubkey rides along so the recipient can verify the
// signature without a separate pubkey lookup (spec.md §4.7: "verify
// signature against embedded sender pubkey").
type MsgPlaintext struct {
	SenderAddressVersion uint64
	SenderStream         uint64
	Behavior             uint32
	SigningPub           [64]byte
	EncryptionPub        [64]byte
	NonceTrialsPerByte   uint64
	ExtraBytes           uint64
	DestinationRipe      [20]byte
	Encoding             uint64
	Subject              []byte
	Body                 []byte
	AckData              []byte
	Signature            []byte
}

func (m *MsgPlaintext) bodyWithoutSignature() []byte {
	w := wire.NewWriter(256)
	w.WriteVarint(m.SenderAddressVersion)
	w.WriteVarint(m.SenderStream)
	w.WriteUint32(m.Behavior)
	w.WriteBytes(m.SigningPub[:])
	w.WriteBytes(m.EncryptionPub[:])
	w.WriteVarint(m.NonceTrialsPerByte)
	w.WriteVarint(m.ExtraBytes)
	w.WriteBytes(m.DestinationRipe[:])
	w.WriteVarint(m.Encoding)
	w.WriteVarBytes(m.Subject)
	w.WriteVarBytes(m.Body)
	w.WriteVarBytes(m.AckData)
	return w.Bytes()
}

// Encode returns the full plaintext encoding, signature included. This
// is the value a CryptoBox envelope encrypts.
func (m *MsgPlaintext) Encode() []byte {
	w := wire.NewWriter(0)
	w.WriteBytes(m.bodyWithoutSignature())
	w.WriteVarBytes(m.Signature)
	return w.Bytes()
}

// DecodeMsgPlaintext parses a decrypted MSG plaintext.
func DecodeMsgPlaintext(data []byte) (*MsgPlaintext, error) {
	r := wire.NewReader(data)
	m := &MsgPlaintext{}

	var err error
	if m.SenderAddressVersion, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if m.SenderStream, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if m.Behavior, err = r.ReadUint32(); err != nil {
		return nil, ErrTruncatedPayload
	}
	signingPub, err := r.ReadBytes(64)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	copy(m.SigningPub[:], signingPub)
	encryptionPub, err := r.ReadBytes(64)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	copy(m.EncryptionPub[:], encryptionPub)
	if m.NonceTrialsPerByte, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if m.ExtraBytes, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	ripe, err := r.ReadBytes(20)
	if err != nil {
		return nil, ErrTruncatedPayload
	}
	copy(m.DestinationRipe[:], ripe)
	if m.Encoding, err = r.ReadVarint(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if m.Subject, err = r.ReadVarBytes(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if m.Body, err = r.ReadVarBytes(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if m.AckData, err = r.ReadVarBytes(); err != nil {
		return nil, ErrTruncatedPayload
	}
	if m.Signature, err = r.ReadVarBytes(); err != nil {
		return nil, ErrTruncatedPayload
	}
	return m, nil
}

// Sign computes and stores m.Signature for the given object envelope.
func (m *MsgPlaintext) Sign(priv *bmcrypto.PrivateKey, o *ObjectMessage) error {
	sig, err := Sign(priv, o, nil, m.bodyWithoutSignature())
	if err != nil {
		return err
	}
	m.Signature = sig
	return nil
}

// Verify checks m.Signature against pub for the given object envelope.
func (m *MsgPlaintext) Verify(pub *bmcrypto.PublicKey, o *ObjectMessage) bool {
	return Verify(pub, o, nil, m.bodyWithoutSignature(), m.Signature)
}

// SealMsg signs m against the sender's signing key then encrypts it to
// the recipient's encryption pubkey, returning the ciphertext an
// ObjectMessage of TypeMsg carries as its payload.
func SealMsg(priv *bmcrypto.PrivateKey, o *ObjectMessage, m *MsgPlaintext, recipientEncryptionPub *bmcrypto.PublicKey) ([]byte, error) {
	if err := m.Sign(priv, o); err != nil {
		return nil, err
	}
	return bmcrypto.SealCryptoBox(recipientEncryptionPub, m.Encode())
}

// OpenMsg decrypts an ObjectMessage TypeMsg payload with a local
// identity's encryption private key. Failure is the expected, silent
// outcome for the overwhelming majority of messages on the network,
// which are not addressed to this identity (spec.md §7).
func OpenMsg(priv *bmcrypto.PrivateKey, payload []byte) (*MsgPlaintext, error) {
	plaintext, err := bmcrypto.OpenCryptoBox(priv, payload)
	if err != nil {
		return nil, err
	}
	return DecodeMsgPlaintext(plaintext)
}
