package bmcrypto

import (
	"bytes"
	"testing"
)

func TestKeyGenerateAndRoundTrip(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	scalar := priv.Bytes()
	if len(scalar) != ScalarSize {
		t.Fatalf("scalar length = %d, want %d", len(scalar), ScalarSize)
	}

	reconstructed, err := NewPrivateKey(scalar)
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}
	if !bytes.Equal(reconstructed.Bytes(), scalar) {
		t.Fatalf("reconstructed scalar mismatch")
	}

	pub := priv.Public()
	pubBytes := pub.Bytes()
	if len(pubBytes) != UncompressedXYSize {
		t.Fatalf("public key length = %d, want %d", len(pubBytes), UncompressedXYSize)
	}

	reconstructedPub, err := NewPublicKey(pubBytes)
	if err != nil {
		t.Fatalf("NewPublicKey: %v", err)
	}
	if !bytes.Equal(reconstructedPub.Bytes(), pubBytes) {
		t.Fatalf("reconstructed public key mismatch")
	}
}

func TestNewPrivateKeyRejectsBadLength(t *testing.T) {
	if _, err := NewPrivateKey([]byte{1, 2, 3}); err != ErrInvalidKey {
		t.Fatalf("got %v, want ErrInvalidKey", err)
	}
}

func TestNewPublicKeyRejectsBadLength(t *testing.T) {
	if _, err := NewPublicKey([]byte{1, 2, 3}); err != ErrInvalidKey {
		t.Fatalf("got %v, want ErrInvalidKey", err)
	}
}

func TestECDHIsSymmetric(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey a: %v", err)
	}
	b, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey b: %v", err)
	}

	sharedAB, err := a.ECDH(b.Public())
	if err != nil {
		t.Fatalf("a.ECDH(b): %v", err)
	}
	sharedBA, err := b.ECDH(a.Public())
	if err != nil {
		t.Fatalf("b.ECDH(a): %v", err)
	}
	if !bytes.Equal(sharedAB, sharedBA) {
		t.Fatalf("ECDH not symmetric: %x != %x", sharedAB, sharedBA)
	}
}

func TestSignVerifySHA1AndSHA256(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub := priv.Public()
	preimage := []byte("an object's signing preimage")

	for _, v := range []DigestVersion{DigestSHA1, DigestSHA256} {
		sig, err := Sign(priv, v, preimage)
		if err != nil {
			t.Fatalf("Sign(%d): %v", v, err)
		}
		if !Verify(pub, v, preimage, sig) {
			t.Fatalf("Verify(%d) rejected a valid signature", v)
		}

		tampered := append([]byte{}, preimage...)
		tampered[0] ^= 0xFF
		if Verify(pub, v, tampered, sig) {
			t.Fatalf("Verify(%d) accepted a signature over a different preimage", v)
		}

		badSig := append([]byte{}, sig...)
		badSig[len(badSig)-1] ^= 0xFF
		if Verify(pub, v, preimage, badSig) {
			t.Fatalf("Verify(%d) accepted a bit-flipped signature", v)
		}
	}
}

func TestSignatureNotCrossCompatibleAcrossDigestVersions(t *testing.T) {
	priv, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub := priv.Public()
	preimage := []byte("some preimage")

	sig, err := Sign(priv, DigestSHA1, preimage)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if Verify(pub, DigestSHA256, preimage, sig) {
		t.Fatalf("a SHA-1 signature verified under the SHA-256 digest")
	}
}
