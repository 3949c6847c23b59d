// Package sched implements the scheduler (C10): the single-threaded
// cooperative event loop that owns every other component and is the
// only place blocking occurs.
//
// Grounded on original_source/radar.c's poll()-driven main loop (the
// "unified poll design" preferred over the project's older select()
// variants, per DESIGN NOTES) and on the teacher's own
// cmd/viz1090/main.go signal-handling idiom, generalized from a
// free-running render loop into the wait-set described in spec.md
// §4.8: a 1 Hz housekeeping timer, an optional multi-frame forwarding
// timer, and the active ingest descriptor.
package sched

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1090mhz-uk/radarfeed/internal/authtag"
	"github.com/1090mhz-uk/radarfeed/internal/batch"
	"github.com/1090mhz-uk/radarfeed/internal/beast"
	"github.com/1090mhz-uk/radarfeed/internal/classifier"
	"github.com/1090mhz-uk/radarfeed/internal/dedup"
	"github.com/1090mhz-uk/radarfeed/internal/egress"
	"github.com/1090mhz-uk/radarfeed/internal/ingest"
	"github.com/1090mhz-uk/radarfeed/internal/stats"
	"github.com/1090mhz-uk/radarfeed/internal/telemetry"
	"github.com/1090mhz-uk/radarfeed/internal/wire"
)

// Version is the triple reported in the opcode-0x80 heartbeat.
var Version = [3]byte{1, 0, 0}

// Config is the static wiring the scheduler needs beyond the
// components it owns.
type Config struct {
	APIKey             uint64
	MultiFrameEnable   bool
	MultiFrameInterval time.Duration
	RadioStatsInterval time.Duration
	TelemetryInterval  time.Duration
}

// Loop owns every core component and drives them from a single
// goroutine. Nothing outside Run's call stack mutates its fields,
// matching spec.md §5's "no shared mutable state requires locks".
type Loop struct {
	cfg Config

	source     *ingest.Source
	classifier *classifier.Classifier
	batcher    *batch.Batcher
	egress     *egress.Supervisor
	dedup      *dedup.Store
	signer     *authtag.Signer
	framer     *beast.Framer

	statsSched     *stats.Scheduler
	telemetrySched *telemetry.Scheduler
	telemetryCol   *telemetry.Collector

	seq          uint32
	sentThisTick bool
	resetRequest bool
	readBuf      [4096]byte
}

// New builds a Loop with every component wired together: the
// classifier's Sink is the Loop itself, so accepted single messages
// and batched ES records flow straight into signing and sending.
func New(cfg Config, source *ingest.Source, eg *egress.Supervisor, policy classifier.Policy, psk []byte) *Loop {
	l := &Loop{
		cfg:            cfg,
		source:         source,
		batcher:        batch.New(),
		egress:         eg,
		dedup:          dedup.NewStore(),
		signer:         authtag.New(psk),
		framer:         beast.NewFramer(),
		statsSched:     stats.NewScheduler(secondsToTicks(cfg.RadioStatsInterval)),
		telemetrySched: telemetry.NewScheduler(secondsToTicks(cfg.TelemetryInterval)),
		telemetryCol:   telemetry.NewCollector(),
	}
	l.classifier = classifier.New(policy, l.dedup, l)
	return l
}

func secondsToTicks(d time.Duration) uint32 {
	if d <= 0 {
		return 1
	}
	return uint32(d / time.Second)
}

// SendSingle implements classifier.Sink: build, sign and send an
// opcode 0x01-0x03 datagram immediately.
func (l *Loop) SendSingle(opcode byte, mlat [6]byte, rssi byte, payload []byte) {
	h := wire.Header{Key: l.cfg.APIKey, TSUs: nowMicros(), Seq: l.nextSeq(), Opcode: opcode}
	full, signable := wire.BuildSingle(h, mlat, rssi, payload)
	l.signAndSend(full, signable)
}

// EnqueueExtended implements classifier.Sink: hand an accepted
// Extended Squitter record to the multi-frame batcher, flushing
// immediately if the buffer is now full (spec.md §8 property 8).
func (l *Loop) EnqueueExtended(mlat [6]byte, rssi byte, payload []byte) {
	if !l.cfg.MultiFrameEnable {
		l.SendSingle(wire.OpModeES, mlat, rssi, payload)
		return
	}
	if full := l.batcher.Add(mlat, rssi, payload); full {
		l.flushBatch()
	}
}

func (l *Loop) flushBatch() {
	records := l.batcher.Flush()
	if records == nil {
		return
	}
	h := wire.Header{Key: l.cfg.APIKey, TSUs: nowMicros(), Seq: l.nextSeq(), Opcode: wire.OpMultiFrame}
	full, signable := wire.BuildMultiFrame(h, records)
	l.signAndSend(full, signable)
}

func (l *Loop) signAndSend(full, signable []byte) {
	tag := l.signer.Sign(signable)
	wire.PutTag(full, tag)
	if l.egress.State() != egress.StateConnected {
		// spec.md §7: "no error in the outbound path is surfaced to
		// the ingest path" - silently drop while disconnected.
		return
	}
	if err := l.egress.Send(time.Now(), full); err == nil {
		l.sentThisTick = true
	}
}

func (l *Loop) nextSeq() uint32 {
	l.seq++
	return l.seq
}

func nowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

// sendHeartbeat emits opcode 0x80 with no dedup/classifier
// involvement, used only from the 1 Hz tick when nothing else was
// sent this second.
func (l *Loop) sendHeartbeat() {
	h := wire.Header{Key: l.cfg.APIKey, TSUs: nowMicros(), Seq: l.nextSeq(), Opcode: wire.OpKeepalive}
	full, signable := wire.BuildKeepalive(h, Version[0], Version[1], Version[2])
	l.signAndSend(full, signable)
}

func (l *Loop) sendRadioStats() {
	snap := l.snapshotStats()
	h := wire.Header{Key: l.cfg.APIKey, TSUs: nowMicros(), Seq: l.nextSeq(), Opcode: wire.OpRadioStats}
	full, signable := wire.BuildOpaque(h, snap.Encode())
	l.signAndSend(full, signable)
}

func (l *Loop) sendTelemetry() {
	snap := l.telemetryCol.Collect()
	h := wire.Header{Key: l.cfg.APIKey, TSUs: nowMicros(), Seq: l.nextSeq(), Opcode: wire.OpTelemetry}
	full, signable := wire.BuildOpaque(h, snap.Encode())
	l.signAndSend(full, signable)
}

// snapshotStats folds the classifier, framer, ingest and egress
// counters into the fixed opcode-0x82 layout.
func (l *Loop) snapshotStats() stats.Snapshot {
	var s stats.Snapshot
	s.RxModeAC = l.classifier.Counters.RxModeAC
	s.RxModeSS = l.classifier.Counters.RxModeSS
	s.RxModeES = l.classifier.Counters.RxModeES
	s.DupeSS = l.classifier.Counters.DupeSS
	s.DupeES = l.classifier.Counters.DupeES
	s.RxDF = l.classifier.Counters.RxDF
	s.FramesGood, s.FramesBad = l.framer.Stats()
	s.ConnectSuccess = l.source.Counters.ConnectSuccess
	s.ConnectFail = l.source.Counters.ConnectFail
	s.Disconnect = l.source.Counters.Disconnect
	s.SocketError = l.source.Counters.SocketError
	s.BytesRead = l.source.Counters.BytesRead
	s.TxCount = l.egress.Counters.TxCount
	s.TxBytes = l.egress.Counters.TxBytes
	return s
}

// RequestReset mirrors a SIGHUP-style external reset: forwarded to the
// egress supervisor on the next tick.
func (l *Loop) RequestReset() {
	l.resetRequest = true
}

// StatsSnapshot exposes the same counters sendRadioStats sends on the
// wire, for internal/metrics' Prometheus collector.
func (l *Loop) StatsSnapshot() stats.Snapshot {
	return l.snapshotStats()
}

// TelemetrySnapshot exposes the same platform telemetry sendTelemetry
// sends on the wire, for internal/metrics' Prometheus collector.
func (l *Loop) TelemetrySnapshot() telemetry.Snapshot {
	return l.telemetryCol.Collect()
}

// tickOneSecond runs the full 1 Hz housekeeping sequence spec.md §4.8
// lists: dedup eviction, heartbeat-if-idle, source/egress second-tick,
// and the two interval countdowns.
func (l *Loop) tickOneSecond(now time.Time) {
	l.dedup.Sweep(int64(now.UnixMicro()))

	if l.resetRequest {
		l.resetRequest = false
		l.egress.Reset()
	}

	l.source.Tick(now)
	l.egress.Tick(now)

	if l.statsSched.Tick() {
		l.sendRadioStats()
	}
	if l.telemetrySched.Tick() {
		l.sendTelemetry()
	}

	if !l.sentThisTick {
		l.sendHeartbeat()
	}
	l.sentThisTick = false
}

// pollIngest drains one chunk from the source, if connected, and
// drives the BEAST framer + classifier pipeline over whatever frames
// come out.
func (l *Loop) pollIngest() {
	if l.source.State() != ingest.StateConnected {
		return
	}
	n, err := l.source.Read(l.readBuf[:])
	if n == 0 || err != nil {
		return
	}
	now := time.Now().UnixMicro()
	for _, f := range l.framer.Write(l.readBuf[:n]) {
		var mlat [6]byte
		copy(mlat[:], f.MLAT[:])
		l.classifier.Process(mlat, f.RSSI, f.Payload, now)
	}
}

// Run drives the event loop until ctx is cancelled or a SIGTERM/SIGINT
// is received. It delegates the actual multiplexing wait to the
// platform-specific waiter built by newWaiter (poll+timerfd on Linux,
// a portable ticker elsewhere).
func (l *Loop) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	hupCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	signal.Notify(hupCh, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	defer signal.Stop(hupCh)

	w, err := newWaiter(l.cfg.MultiFrameEnable, l.cfg.MultiFrameInterval)
	if err != nil {
		return fmt.Errorf("sched: build waiter: %w", err)
	}
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			l.egress.Close()
			l.source.Close()
			return nil
		case <-sigCh:
			l.egress.Close()
			l.source.Close()
			return nil
		case <-hupCh:
			l.RequestReset()
			continue
		default:
		}

		ingestFd := -1
		if l.source.State() == ingest.StateConnected {
			if fd, err := l.source.Fd(); err == nil {
				ingestFd = fd
			}
		}

		ev, err := w.Wait(ingestFd)
		if err != nil {
			continue
		}

		if ev.Second {
			l.tickOneSecond(time.Now())
		}
		if ev.MultiFrame {
			l.flushBatch()
		}
		if ev.Ingest {
			l.pollIngest()
		}
	}
}
