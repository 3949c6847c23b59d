package dedup

import "testing"

func sevenBytes(b byte) []byte {
	return []byte{b, b, b, b, b, b, b}
}

func TestCheckAndInsertWindow(t *testing.T) {
	tbl := NewTable()
	p := sevenBytes(0xAB)

	const t0 = int64(1_000_000)

	if tbl.CheckAndInsert(p, t0) {
		t.Fatalf("first insert reported as duplicate")
	}

	// Anywhere strictly inside (t0, t0+3_000_000] must report duplicate.
	for _, now := range []int64{t0 + 1, t0 + 1_500_000, t0 + MaxAgeUs} {
		if !tbl.CheckAndInsert(p, now) {
			t.Fatalf("at now=%d expected duplicate", now)
		}
	}
}

func TestSweepEvictsOnlyStale(t *testing.T) {
	tbl := NewTable()
	fresh := sevenBytes(0x01)
	stale := sevenBytes(0x02)

	tbl.CheckAndInsert(stale, 0)
	tbl.CheckAndInsert(fresh, 2_000_000)

	removed := tbl.Sweep(3_100_000)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if tbl.Len() != 1 {
		t.Fatalf("len after sweep = %d, want 1", tbl.Len())
	}

	// stale entry evicted; re-inserting must be treated as new
	if tbl.CheckAndInsert(stale, 3_100_001) {
		t.Fatalf("evicted entry still reported as duplicate")
	}
}

func TestSweepComplexityBoundedByLiveEntries(t *testing.T) {
	tbl := NewTable()
	for i := 0; i < 1000; i++ {
		tbl.CheckAndInsert([]byte{byte(i), byte(i >> 8), 0, 0, 0, 0, 0}, 0)
	}
	removed := tbl.Sweep(MaxAgeUs + 1)
	if removed != 1000 {
		t.Fatalf("removed = %d, want 1000", removed)
	}
	if tbl.Len() != 0 {
		t.Fatalf("table not empty after sweeping all entries")
	}
}

func TestStoreSweepsBothTables(t *testing.T) {
	store := NewStore()
	store.Short.CheckAndInsert(sevenBytes(0x03), 0)
	store.Extended.CheckAndInsert(make([]byte, 14), 0)

	removed := store.Sweep(MaxAgeUs + 1)
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
}

func TestDoesNotTouchTimestampOnDuplicate(t *testing.T) {
	tbl := NewTable()
	p := sevenBytes(0x09)

	tbl.CheckAndInsert(p, 0)
	tbl.CheckAndInsert(p, 1_000_000) // duplicate, must not refresh ts

	// If the timestamp had been refreshed to 1_000_000, the entry would
	// survive a sweep at MaxAgeUs+1 (age 2_000_001 < MaxAgeUs); it must not.
	if removed := tbl.Sweep(MaxAgeUs + 1); removed != 1 {
		t.Fatalf("duplicate insert refreshed the timestamp; removed=%d want 1", removed)
	}
}
