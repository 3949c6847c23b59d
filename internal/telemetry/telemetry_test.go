package telemetry

import "testing"

func TestSchedulerFiresAtHalfIntervalThenFullInterval(t *testing.T) {
	s := NewScheduler(10)

	var firedAt []int
	for i := 1; i <= 25; i++ {
		if s.Tick() {
			firedAt = append(firedAt, i)
		}
	}

	want := []int{5, 15, 25}
	if len(firedAt) != len(want) {
		t.Fatalf("fired at %v, want %v", firedAt, want)
	}
}

func TestEncodeLength(t *testing.T) {
	s := Snapshot{UptimeSeconds: 123, MemTotalKB: 4096}
	buf := s.Encode()
	if len(buf) != EncodedLen {
		t.Fatalf("encoded length = %d, want %d", len(buf), EncodedLen)
	}
}

func TestNewCollectorDefaultAllowlist(t *testing.T) {
	c := NewCollector()
	if len(c.ThermalZoneAllowlist) == 0 {
		t.Fatalf("expected a non-empty default thermal zone allowlist")
	}
}

func TestUptimeNearZeroAfterConstruction(t *testing.T) {
	c := NewCollector()
	if c.Uptime() > 1 {
		t.Fatalf("uptime = %d immediately after construction, want ~0", c.Uptime())
	}
}
