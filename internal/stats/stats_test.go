package stats

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
	for i := range want {
		if firedAt[i] != want[i] {
			t.Fatalf("fired at %v, want %v", firedAt, want)
		}
	}
}

func TestEncodeLength(t *testing.T) {
	var s Snapshot
	s.RxDF[3] = 7
	buf := s.Encode()
	if len(buf) != EncodedLen {
		t.Fatalf("encoded length = %d, want %d", len(buf), EncodedLen)
	}
}

func TestEncodeFieldOrder(t *testing.T) {
	s := Snapshot{RxModeAC: 1, RxModeSS: 2, RxModeES: 3}
	buf := s.Encode()
	if buf[0] != 1 || buf[8] != 2 || buf[16] != 3 {
		t.Fatalf("field order mismatch in encoded snapshot")
	}
}
