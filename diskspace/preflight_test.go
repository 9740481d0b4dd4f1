package diskspace

import "testing"

func TestPreflightZeroNeededAlwaysPasses(t *testing.T) {
	if err := Preflight(t.TempDir(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPreflightRejectsUnreasonableDemand(t *testing.T) {
	const petabyte = int64(1) << 50
	if err := Preflight(t.TempDir(), petabyte); err == nil {
		t.Fatal("expected insufficient space error")
	}
}
