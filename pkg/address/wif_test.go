package address

import "testing"

func TestDecodeWIFRejectsGarbage(t *testing.T) {
	if _, err := DecodeWIF("not-base58-!!!"); err != ErrInvalidWIF {
		t.Fatalf("got %v, want ErrInvalidWIF", err)
	}
}

func TestDecodeWIFRejectsTamperedChecksum(t *testing.T) {
	s := "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"
	tampered := []byte(s)
	tampered[0], tampered[1] = tampered[1], tampered[0]
	if _, err := DecodeWIF(string(tampered)); err != ErrInvalidWIF {
		t.Fatalf("got %v, want ErrInvalidWIF", err)
	}
}

func TestDecodeWIFRejectsShortPayload(t *testing.T) {
	// base58 of a too-short byte string (well under version+scalar+checksum).
	if _, err := DecodeWIF("3MNQE1X"); err != ErrInvalidWIF {
		t.Fatalf("got %v, want ErrInvalidWIF", err)
	}
}
