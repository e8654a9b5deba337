package wire

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{
		0, 1, 0xFC, 0xFD, 0xFE, 0xFF, 0xFFFF, 0x10000,
		0xFFFFFFFF, 0x100000000, 1<<63 - 1, ^uint64(0),
	}
	for _, v := range cases {
		buf := PutVarint(nil, v)
		if len(buf) != VarintLen(v) {
			t.Fatalf("VarintLen(%d) = %d, PutVarint produced %d bytes", v, VarintLen(v), len(buf))
		}
		got, n, err := ReadVarint(buf)
		if err != nil {
			t.Fatalf("ReadVarint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("ReadVarint round trip: want %d, got %d", v, got)
		}
		if n != len(buf) {
			t.Fatalf("ReadVarint consumed %d, want %d", n, len(buf))
		}
	}
}

func TestVarintLenienRead(t *testing.T) {
	// 1 encoded in the non-minimal 3-byte form must still be accepted by
	// the lenient reader, per the read side of the minimal-write /
	// lenient-read policy.
	nonMinimal := []byte{prefix16, 0x00, 0x01}
	v, n, err := ReadVarint(nonMinimal)
	if err != nil {
		t.Fatalf("ReadVarint on non-minimal encoding: %v", err)
	}
	if v != 1 || n != 3 {
		t.Fatalf("got v=%d n=%d, want v=1 n=3", v, n)
	}

	if _, _, err := ReadVarintStrict(nonMinimal); err != ErrNonMinimalVarint {
		t.Fatalf("ReadVarintStrict on non-minimal encoding: got %v, want ErrNonMinimalVarint", err)
	}

	minimal := PutVarint(nil, 1)
	if _, _, err := ReadVarintStrict(minimal); err != nil {
		t.Fatalf("ReadVarintStrict on minimal encoding: %v", err)
	}
}

func TestVarintTruncated(t *testing.T) {
	cases := [][]byte{
		{},
		{prefix16, 0x00},
		{prefix32, 0x00, 0x00, 0x00},
		{prefix64, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
	}
	for _, c := range cases {
		if _, _, err := ReadVarint(c); err != ErrTruncated {
			t.Fatalf("ReadVarint(%v): got %v, want ErrTruncated", c, err)
		}
	}
}

func TestPutVarintBoundaries(t *testing.T) {
	cases := map[uint64]int{
		0xFC:        1,
		0xFD:        3,
		0xFFFF:      3,
		0x10000:     5,
		0xFFFFFFFF:  5,
		0x100000000: 9,
	}
	for v, want := range cases {
		if got := VarintLen(v); got != want {
			t.Errorf("VarintLen(%#x) = %d, want %d", v, got, want)
		}
	}
}
