package pow

import "testing"

func TestTargetDecreasesWithLength(t *testing.T) {
	small := Target(100, 3600, DefaultNonceTrialsPerByte, DefaultExtraBytes)
	large := Target(10000, 3600, DefaultNonceTrialsPerByte, DefaultExtraBytes)
	if large >= small {
		t.Fatalf("Target(large) = %d should be smaller (harder) than Target(small) = %d", large, small)
	}
}

func TestTargetDecreasesWithTTL(t *testing.T) {
	short := Target(1000, 3600, DefaultNonceTrialsPerByte, DefaultExtraBytes)
	long := Target(1000, 3600*48, DefaultNonceTrialsPerByte, DefaultExtraBytes)
	if long >= short {
		t.Fatalf("Target(long TTL) = %d should be smaller (harder) than Target(short TTL) = %d", long, short)
	}
}

func TestTargetZeroParamsDefault(t *testing.T) {
	explicit := Target(500, 3600, DefaultNonceTrialsPerByte, DefaultExtraBytes)
	defaulted := Target(500, 3600, 0, 0)
	if explicit != defaulted {
		t.Fatalf("Target with zero nonceTrialsPerByte/extraBytes = %d, want default-equivalent %d", defaulted, explicit)
	}
}

func TestTargetNeverZeroForReasonableInputs(t *testing.T) {
	target := Target(1600003, 48*3600, DefaultNonceTrialsPerByte, DefaultExtraBytes)
	if target == 0 {
		t.Fatalf("Target degenerated to 0 for max-size payload and a typical TTL")
	}
}
