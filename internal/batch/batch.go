// Package batch implements the multi-frame batcher (C7): a slice with
// capacity wire.MaxMultiFrame holding accepted Extended Squitter
// records, flushed on a full buffer or on expiry of the forwarding
// interval.
//
// Grounded on original_source/radar.c's radar_send_multiframe(), with
// the source's intrusive linked list replaced by a fixed-capacity slice
// that Flush hands off and replaces with a fresh one.
package batch

import "github.com/1090mhz-uk/radarfeed/internal/wire"

// Batcher accumulates wire.Record values and reports when it should be
// flushed. It performs no I/O itself; the scheduler calls Flush and
// hands the returned records to the signer/sender.
type Batcher struct {
	records []wire.Record
}

// New returns an empty Batcher.
func New() *Batcher {
	return &Batcher{records: make([]wire.Record, 0, wire.MaxMultiFrame)}
}

// Add appends one accepted Extended Squitter record. It reports true if
// the buffer now holds wire.MaxMultiFrame records and must be flushed
// immediately, matching spec.md §4.6's "buffer full" flush trigger. Add
// does not cap the buffer itself: a record added while it is already
// full is appended, and the buffer then holds more than MaxMultiFrame.
func (b *Batcher) Add(mlat [6]byte, rssi byte, payload []byte) (full bool) {
	var rec wire.Record
	rec.MLAT = mlat
	rec.RSSI = rssi
	copy(rec.Payload[:], payload)

	b.records = append(b.records, rec)
	return len(b.records) >= wire.MaxMultiFrame
}

// Len reports the number of buffered records.
func (b *Batcher) Len() int {
	return len(b.records)
}

// Flush returns the buffered records and empties the buffer. If the
// buffer is empty, Flush returns nil: spec.md §4.6 requires no datagram
// be produced when the timer fires on an empty buffer.
func (b *Batcher) Flush() []wire.Record {
	if len(b.records) == 0 {
		return nil
	}
	out := b.records
	b.records = make([]wire.Record, 0, wire.MaxMultiFrame)
	return out
}
