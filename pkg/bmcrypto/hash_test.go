package bmcrypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestSHA512KnownVector(t *testing.T) {
	// NIST/RFC test vector for the empty message.
	want := "cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3"
	got := SHA512([]byte(""))
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("SHA512(\"\") = %x, want %s", got, want)
	}
}

func TestDoubleSHA512IsTwoApplications(t *testing.T) {
	msg := []byte("bitmesh")
	first := SHA512(msg)
	want := SHA512(first[:])
	got := DoubleSHA512(msg)
	if got != want {
		t.Fatalf("DoubleSHA512 != SHA512(SHA512(msg))")
	}
	if !bytes.Equal(DoubleSHA512Slice(msg), want[:]) {
		t.Fatalf("DoubleSHA512Slice mismatch")
	}
}

func TestMacHalves(t *testing.T) {
	var mac [SHA512Size]byte
	for i := range mac {
		mac[i] = byte(i)
	}
	first := MacFirstHalf(mac)
	second := MacSecondHalf(mac)
	if len(first) != 32 || len(second) != 32 {
		t.Fatalf("halves have wrong length: %d, %d", len(first), len(second))
	}
	if !bytes.Equal(first, mac[:32]) {
		t.Fatalf("MacFirstHalf mismatch")
	}
	if !bytes.Equal(second, mac[32:]) {
		t.Fatalf("MacSecondHalf mismatch")
	}
}

func TestRIPEMD160KnownVector(t *testing.T) {
	// RIPEMD-160("") per the reference test vectors.
	want := "9c1185a5c5e9fc54612808977ee8f548b2258d31"
	got := RIPEMD160([]byte(""))
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("RIPEMD160(\"\") = %x, want %s", got, want)
	}
}
