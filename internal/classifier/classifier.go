// Package classifier implements the radar classifier (C6): it dispatches
// an ingested message by payload length, applies the configured
// forwarding policy and DF filter, queries the dedup store, and either
// emits a single-frame datagram or hands the message to the multi-frame
// batcher.
//
// Grounded on original_source/radar.c's radar_process()/send_mode_ac()/
// send_mode_ss()/send_mode_es(). Unlike that source, which has a
// copy-paste bug setting every opcode to RADAR_OPCODE_MODE_ES, this
// package emits the distinct opcodes 0x01/0x02/0x03 the wire format
// requires — see DESIGN.md.
package classifier

import (
	"github.com/1090mhz-uk/radarfeed/internal/dedup"
	"github.com/1090mhz-uk/radarfeed/internal/wire"
)

// DFMin and DFMax bound the default forwarded Downlink Format range for
// Extended Squitter payloads.
const (
	DFMin = 17
	DFMax = 22
)

// Sink receives the records the classifier decides to forward. A
// Classifier doesn't sign or send anything itself; it only builds wire
// bodies and counts.
type Sink interface {
	// SendSingle forwards one immediately-built single-message datagram
	// (opcodes 0x01-0x03).
	SendSingle(opcode byte, mlat [6]byte, rssi byte, payload []byte)
	// EnqueueExtended hands a new, non-duplicate Extended Squitter
	// record to the multi-frame batcher. Implementations that don't
	// batch may fall back to an immediate SendSingle themselves.
	EnqueueExtended(mlat [6]byte, rssi byte, payload []byte)
}

// Policy is the forwarding configuration consulted on every message.
type Policy struct {
	ForwardModeAC     bool
	ForwardModeS      bool
	ForwardEverything bool
	BatchExtended     bool // route accepted ES records through EnqueueExtended
}

// Counters mirrors the stats histogram spec.md §3(b) requires: a per-DF
// tally plus the three per-class receive counters. Index 0 of RxDF
// covers DF 0, up to 31.
type Counters struct {
	RxModeAC uint64
	RxModeSS uint64
	RxModeES uint64
	RxDF     [32]uint64
	DupeSS   uint64
	DupeES   uint64
}

// Classifier is C6: stateless aside from the counters and the dedup
// store it shares with the scheduler.
type Classifier struct {
	Policy Policy
	Dedup  *dedup.Store
	Sink   Sink

	Counters Counters
}

// New returns a Classifier wired to the given dedup store and sink.
func New(policy Policy, store *dedup.Store, sink Sink) *Classifier {
	return &Classifier{Policy: policy, Dedup: store, Sink: sink}
}

// Process dispatches one ingested message by payload length, exactly as
// original_source/radar.c's radar_process(). nowUs is the current
// microsecond timestamp used for dedup insertion.
func (c *Classifier) Process(mlat [6]byte, rssi byte, payload []byte, nowUs int64) {
	switch len(payload) {
	case wire.ModeACLen:
		c.processModeAC(mlat, rssi, payload)
	case wire.ModeSSLen:
		c.processModeSS(mlat, rssi, payload, nowUs)
	case wire.ModeESLen:
		c.processModeES(mlat, rssi, payload, nowUs)
	default:
		// not one of the three recognized classes; the framer should
		// never hand us this, but ignore defensively.
	}
}

func (c *Classifier) processModeAC(mlat [6]byte, rssi byte, payload []byte) {
	c.Counters.RxModeAC++
	if !c.Policy.ForwardModeAC {
		return
	}
	c.Sink.SendSingle(wire.OpModeAC, mlat, rssi, payload)
}

func (c *Classifier) processModeSS(mlat [6]byte, rssi byte, payload []byte, nowUs int64) {
	c.Counters.RxModeSS++
	df := payload[0] >> 3
	c.Counters.RxDF[df]++

	if !c.Policy.ForwardModeS {
		return
	}
	if c.Dedup.Short.CheckAndInsert(payload, nowUs) {
		c.Counters.DupeSS++
		return
	}
	c.Sink.SendSingle(wire.OpModeS, mlat, rssi, payload)
}

func (c *Classifier) processModeES(mlat [6]byte, rssi byte, payload []byte, nowUs int64) {
	c.Counters.RxModeES++
	df := payload[0] >> 3
	c.Counters.RxDF[df]++

	if !c.forwardedDF(df) {
		return
	}
	if c.Dedup.Extended.CheckAndInsert(payload, nowUs) {
		c.Counters.DupeES++
		return
	}

	if c.Policy.BatchExtended {
		c.Sink.EnqueueExtended(mlat, rssi, payload)
		return
	}
	c.Sink.SendSingle(wire.OpModeES, mlat, rssi, payload)
}

func (c *Classifier) forwardedDF(df byte) bool {
	if c.Policy.ForwardEverything {
		return true
	}
	return df >= DFMin && df <= DFMax
}
