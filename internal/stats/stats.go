// Package stats implements the radio-stats countdown emitter half of
// C9: a periodic snapshot of the classifier/framer/ingest/egress
// counters, sent as opcode 0x82. Grounded on original_source/stats.c's
// countdown scheduling (first send at interval/2, then every interval).
package stats

import "encoding/binary"

// Snapshot is the set of counters folded into one opcode-0x82 body.
// Field order here fixes the wire layout; see Encode.
type Snapshot struct {
	RxModeAC       uint64
	RxModeSS       uint64
	RxModeES       uint64
	DupeSS         uint64
	DupeES         uint64
	FramesGood     uint64
	FramesBad      uint64
	ConnectSuccess uint64
	ConnectFail    uint64
	Disconnect     uint64
	SocketError    uint64
	BytesRead      uint64
	TxCount        uint64
	TxBytes        uint64
	RxDF           [32]uint64
}

// EncodedLen is the fixed size in bytes of an encoded Snapshot body.
const EncodedLen = 14*8 + 32*8

// Encode packs s into the opcode-0x82 body: 14 little-endian u64
// counters in field-declaration order, followed by the 32-entry RxDF
// histogram, also as little-endian u64.
func (s Snapshot) Encode() []byte {
	buf := make([]byte, EncodedLen)
	fields := []uint64{
		s.RxModeAC, s.RxModeSS, s.RxModeES, s.DupeSS, s.DupeES,
		s.FramesGood, s.FramesBad,
		s.ConnectSuccess, s.ConnectFail, s.Disconnect, s.SocketError, s.BytesRead,
		s.TxCount, s.TxBytes,
	}
	off := 0
	for _, f := range fields {
		binary.LittleEndian.PutUint64(buf[off:off+8], f)
		off += 8
	}
	for _, f := range s.RxDF {
		binary.LittleEndian.PutUint64(buf[off:off+8], f)
		off += 8
	}
	return buf
}

// Scheduler drives the interval/2-then-interval countdown of spec.md
// §4.9: the first snapshot is a liveness ping sent early, subsequent
// ones follow the configured period. Grounded on
// original_source/stats.c's decrement-and-fire countdown.
type Scheduler struct {
	intervalTicks uint32
	countdown     uint32
}

// NewScheduler builds a Scheduler for an interval expressed in 1 Hz
// ticks. The first Tick() to return true happens after intervalTicks/2
// ticks have elapsed.
func NewScheduler(intervalTicks uint32) *Scheduler {
	return &Scheduler{intervalTicks: intervalTicks, countdown: intervalTicks / 2}
}

// Tick advances the countdown by one second. It returns true exactly
// when a snapshot is due to be built and sent.
func (s *Scheduler) Tick() bool {
	if s.countdown > 0 {
		s.countdown--
	}
	if s.countdown == 0 {
		s.countdown = s.intervalTicks
		return true
	}
	return false
}
