package address

import (
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	cases := []*Address{
		New(2, 1, [20]byte{1, 2, 3}),
		New(3, 1, [20]byte{0, 0x74, 0x02}),
		New(4, 5, [20]byte{0xFF, 0xFF, 0xFF, 0xFF}),
	}
	for _, a := range cases {
		s := a.String()
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got.String() != s {
			t.Fatalf("round trip: Parse(%q).String() = %q", s, got.String())
		}
		if *got != *a {
			t.Fatalf("round trip fields: got %+v, want %+v", got, a)
		}
	}
}

func TestParseRejectsMissingPrefix(t *testing.T) {
	if _, err := Parse("2D9Vc5rFxxR5vTi53T9gkLfemViHRMVLQZ"); err != ErrInvalidPrefix {
		t.Fatalf("got %v, want ErrInvalidPrefix", err)
	}
}

func TestParseRejectsBadChecksum(t *testing.T) {
	s := New(3, 1, [20]byte{1, 2, 3, 4}).String()
	tampered := []byte(s)
	tampered[len(tampered)-1]++
	if _, err := Parse(string(tampered)); err != ErrInvalidChecksum && err != ErrInvalidBase58 {
		t.Fatalf("got %v, want ErrInvalidChecksum or ErrInvalidBase58", err)
	}
}

func TestParseRejectsOutOfRangeVersion(t *testing.T) {
	a := New(9, 1, [20]byte{})
	if _, err := Parse(a.String()); err != ErrInvalidVersion {
		t.Fatalf("got %v, want ErrInvalidVersion", err)
	}
}

func TestParseRejectsZeroStream(t *testing.T) {
	a := New(3, 0, [20]byte{})
	if _, err := Parse(a.String()); err != ErrInvalidStream {
		t.Fatalf("got %v, want ErrInvalidStream", err)
	}
}

func TestGenerateIdentityLeadingZeroInvariant(t *testing.T) {
	for _, version := range []uint64{3, 4} {
		priv, addr, err := GenerateIdentity(version, 1)
		if err != nil {
			t.Fatalf("GenerateIdentity(%d): %v", version, err)
		}
		if addr.Ripe[0] != 0 {
			t.Fatalf("version %d: RIPE leading byte = %#x, want 0", version, addr.Ripe[0])
		}
		if priv.SigningKey == nil || priv.EncryptionKey == nil {
			t.Fatalf("version %d: identity missing keys", version)
		}
		derived := FromPrivateKey(priv, version, 1)
		if *derived != *addr {
			t.Fatalf("FromPrivateKey(priv) = %+v, want %+v", derived, addr)
		}
	}
}

func TestGenerateIdentityVersion2SkipsVanityRule(t *testing.T) {
	// Version 2 has no leading-zero requirement; it must return on the
	// first attempt regardless of the resulting RIPE digest.
	_, addr, err := GenerateIdentity(2, 1)
	if err != nil {
		t.Fatalf("GenerateIdentity(2): %v", err)
	}
	if addr.Version != 2 {
		t.Fatalf("Version = %d, want 2", addr.Version)
	}
}

func TestCalculateTagAndDecryptionKeyAreDeterministicAndDistinct(t *testing.T) {
	ripe := [20]byte{9, 8, 7, 6, 5}
	tag1 := CalculateTag(4, 1, ripe)
	tag2 := CalculateTag(4, 1, ripe)
	if tag1 != tag2 {
		t.Fatalf("CalculateTag not deterministic")
	}

	key1 := CalculateDecryptionKey(4, 1, ripe)
	key2 := CalculateDecryptionKey(4, 1, ripe)
	if key1 != key2 {
		t.Fatalf("CalculateDecryptionKey not deterministic")
	}

	if tag1 == key1 {
		t.Fatalf("tag and decryption key collided: both halves of the same digest should differ")
	}

	otherRipe := [20]byte{1, 1, 1}
	if CalculateTag(4, 1, otherRipe) == tag1 {
		t.Fatalf("CalculateTag did not vary with its RIPE input")
	}
}

func TestComputeRipeMatchesDerivedAddress(t *testing.T) {
	priv, addr, err := GenerateIdentity(3, 2)
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	ripe := ComputeRipe(priv.Public())
	if ripe != addr.Ripe {
		t.Fatalf("ComputeRipe(pub) = %x, want %x", ripe, addr.Ripe)
	}
}
