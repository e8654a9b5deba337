package wireobj

import (
	"bytes"
	"testing"

	"github.com/wirebit/bitmesh/pkg/bmcrypto"
)

func TestBroadcastPlaintextRoundTrip(t *testing.T) {
	b := &BroadcastPlaintext{
		SenderAddressVersion: 5,
		SenderStream:         1,
		SigningPub:           [64]byte{1},
		EncryptionPub:        [64]byte{2},
		NonceTrialsPerByte:   1000,
		ExtraBytes:           1000,
		Encoding:             2,
		Subject:              []byte("subject"),
		Body:                 []byte("broadcast body"),
		Signature:            []byte{0xCA, 0xFE},
	}
	got, err := DecodeBroadcastPlaintext(b.Encode())
	if err != nil {
		t.Fatalf("DecodeBroadcastPlaintext: %v", err)
	}
	if !bytes.Equal(got.Body, b.Body) || !bytes.Equal(got.Signature, b.Signature) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, b)
	}
}

func TestSealOpenBroadcastV4(t *testing.T) {
	signing, err := bmcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey signing: %v", err)
	}
	broadcastKey, err := bmcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey broadcast: %v", err)
	}

	o := &ObjectMessage{ExpiresTime: 1700000000, ObjectType: TypeBroadcast, Version: 4, Stream: 1}
	plaintext := &BroadcastPlaintext{
		SenderAddressVersion: 3,
		SenderStream:         1,
		SigningPub:           [64]byte(signing.Public().Bytes()),
		Body:                 []byte("to all subscribers"),
	}

	payload, err := SealBroadcastV4(signing, o, plaintext, broadcastKey)
	if err != nil {
		t.Fatalf("SealBroadcastV4: %v", err)
	}

	opened, err := OpenBroadcastV4(broadcastKey, payload)
	if err != nil {
		t.Fatalf("OpenBroadcastV4: %v", err)
	}
	if !bytes.Equal(opened.Body, plaintext.Body) {
		t.Fatalf("Body = %q, want %q", opened.Body, plaintext.Body)
	}
	if !opened.Verify(signing.Public(), o, nil) {
		t.Fatalf("Verify rejected the opened broadcast's own signature")
	}
}

func TestSealSplitOpenBroadcastV5(t *testing.T) {
	signing, err := bmcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey signing: %v", err)
	}
	broadcastKey, err := bmcrypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey broadcast: %v", err)
	}
	tag := [32]byte{7, 7, 7}

	o := &ObjectMessage{ExpiresTime: 1700000000, ObjectType: TypeBroadcast, Version: 5, Stream: 1}
	plaintext := &BroadcastPlaintext{
		SenderAddressVersion: 4,
		SenderStream:         1,
		SigningPub:           [64]byte(signing.Public().Bytes()),
		Body:                 []byte("v5 broadcast body"),
	}

	payload, err := SealBroadcastV5(signing, o, tag, plaintext, broadcastKey)
	if err != nil {
		t.Fatalf("SealBroadcastV5: %v", err)
	}

	gotTag, envelope, err := SplitBroadcastV5(payload)
	if err != nil {
		t.Fatalf("SplitBroadcastV5: %v", err)
	}
	if gotTag != tag {
		t.Fatalf("tag = %x, want %x", gotTag, tag)
	}

	opened, err := OpenBroadcastV5(broadcastKey, envelope)
	if err != nil {
		t.Fatalf("OpenBroadcastV5: %v", err)
	}
	if !bytes.Equal(opened.Body, plaintext.Body) {
		t.Fatalf("Body = %q, want %q", opened.Body, plaintext.Body)
	}
	if !opened.Verify(signing.Public(), o, &tag) {
		t.Fatalf("Verify rejected the opened v5 broadcast's own signature")
	}
	if opened.Verify(signing.Public(), o, nil) {
		t.Fatalf("Verify accepted a v5 signature without its routing tag prefix")
	}
}

func TestBroadcastKeyFromScalarIsUsable(t *testing.T) {
	var scalar [32]byte
	for i := range scalar {
		scalar[i] = byte(i + 1)
	}
	key, err := BroadcastKeyFromScalar(scalar)
	if err != nil {
		t.Fatalf("BroadcastKeyFromScalar: %v", err)
	}
	if key.Public() == nil {
		t.Fatalf("derived key has no public half")
	}
}
