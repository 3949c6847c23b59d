// Package dedup implements the 3-second sliding-window duplicate filter
// applied to Mode-S Short and Extended Squitter payloads. Two
// independent tables exist, one per payload length; Mode-A/C is never
// deduplicated. Grounded on original_source/dupe.c, replacing its
// uthash-based linked hash table with a plain Go map keyed by payload
// bytes (see SPEC_FULL.md DESIGN NOTES on "intrusive... lists").
package dedup

// MaxAgeUs is the maximum age, in microseconds, an entry may reach
// before it becomes eligible for eviction.
const MaxAgeUs = 3_000_000

// Table is a single de-duplication set keyed by exact payload bytes.
type Table struct {
	entries map[string]int64 // payload -> insertion timestamp (us)
}

// NewTable creates an empty dedup table.
func NewTable() *Table {
	return &Table{entries: make(map[string]int64)}
}

// CheckAndInsert reports whether payload has already been seen within
// the current window. If it has, its timestamp is left untouched and
// true is returned. Otherwise an entry stamped with nowUs is inserted
// and false is returned.
func (t *Table) CheckAndInsert(payload []byte, nowUs int64) bool {
	key := string(payload)

	if _, ok := t.entries[key]; ok {
		return true
	}

	t.entries[key] = nowUs
	return false
}

// Sweep removes every entry whose age exceeds MaxAgeUs, returning the
// number of entries removed. Complexity is O(k) in the number of live
// entries, matching the original's HASH_ITER sweep.
func (t *Table) Sweep(nowUs int64) int {
	removed := 0
	for k, ts := range t.entries {
		if nowUs-ts > MaxAgeUs {
			delete(t.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, for diagnostics.
func (t *Table) Len() int {
	return len(t.entries)
}

// Store holds the two independent dedup tables the spec requires: one
// for 7-byte Mode-S Short payloads, one for 14-byte Extended Squitter
// payloads. Swept once per tick from the scheduler.
type Store struct {
	Short    *Table // 7-byte Mode-S Short Squitter
	Extended *Table // 14-byte Mode-S Extended Squitter
}

// NewStore creates a Store with both tables initialized.
func NewStore() *Store {
	return &Store{
		Short:    NewTable(),
		Extended: NewTable(),
	}
}

// Sweep evicts stale entries from both tables and returns the total
// number removed.
func (s *Store) Sweep(nowUs int64) int {
	return s.Short.Sweep(nowUs) + s.Extended.Sweep(nowUs)
}
