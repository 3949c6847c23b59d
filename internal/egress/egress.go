// Package egress implements the UDP supervisor (C8): a finite state
// machine that resolves the aggregator hostname, opens a "connected"
// UDP socket, sends outbound datagrams, and retries on any failure. An
// optional periodic rebind forces a fresh ephemeral source port as a
// workaround for CGNAT mappings that expire under idle traffic.
//
// Grounded on original_source/udp.c's state machine; DSCP and the raw
// fd needed for rebinding go through internal/sockopt.
package egress

import (
	"fmt"
	"net"
	"time"

	"github.com/1090mhz-uk/radarfeed/internal/sockopt"
)

// State is one of the UDP supervisor's lifecycle states.
type State int

const (
	StateIdle State = iota
	StateWaitLookup
	StateWaitConnect
	StateConnected
	StateRetryWait
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateWaitLookup:
		return "WAIT_LOOKUP"
	case StateWaitConnect:
		return "WAIT_CONNECT"
	case StateConnected:
		return "CONNECTED"
	case StateRetryWait:
		return "RETRY_WAIT"
	default:
		return "UNKNOWN"
	}
}

// RetryWait is the fixed RETRY_WAIT cool-down before returning to IDLE.
const RetryWait = 3 * time.Second

// Config is the egress supervisor's static configuration.
type Config struct {
	Host        string
	Port        int
	DSCP        int           // 0-63, 0 disables ToS marking
	RebindEvery time.Duration // 0 disables periodic rebind
}

// Counters mirrors the wire-adjacent counters the scheduler's stats
// emitter reports.
type Counters struct {
	TxCount     uint64
	TxBytes     uint64
	LookupFail  uint64
	ConnectFail uint64
	SendFail    uint64
	Rebinds     uint64
}

// Supervisor drives the UDP FSM. It is owned and ticked exclusively by
// the scheduler goroutine; no internal locking.
type Supervisor struct {
	cfg Config

	state      State
	conn       *net.UDPConn
	resolved   *net.UDPAddr
	retryUntil time.Time
	rebindAt   time.Time
	resetFlag  bool

	Counters Counters
}

// New returns a Supervisor in the IDLE state.
func New(cfg Config) *Supervisor {
	return &Supervisor{cfg: cfg, state: StateIdle}
}

// State reports the supervisor's current state.
func (s *Supervisor) State() State { return s.state }

// Reset forces a transition to RETRY_WAIT on the next Tick, matching
// the SIGHUP-driven external reset of spec.md §4.7.
func (s *Supervisor) Reset() {
	s.resetFlag = true
}

// Tick advances the state machine by one scheduler iteration. now is
// supplied by the caller so tests don't depend on wall-clock time.
func (s *Supervisor) Tick(now time.Time) {
	if s.resetFlag && s.state != StateRetryWait {
		s.resetFlag = false
		s.enterRetryWait(now)
		return
	}
	s.resetFlag = false

	switch s.state {
	case StateIdle:
		s.state = StateWaitLookup

	case StateWaitLookup:
		addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port))
		if err != nil {
			s.Counters.LookupFail++
			s.enterRetryWait(now)
			return
		}
		s.resolved = addr
		s.state = StateWaitConnect

	case StateWaitConnect:
		conn, err := net.DialUDP("udp", nil, s.resolved)
		if err != nil {
			s.Counters.ConnectFail++
			s.enterRetryWait(now)
			return
		}
		if s.cfg.DSCP > 0 {
			if err := sockopt.SetTOS(conn, s.cfg.DSCP); err != nil {
				conn.Close()
				s.Counters.ConnectFail++
				s.enterRetryWait(now)
				return
			}
		}
		s.conn = conn
		s.state = StateConnected
		if s.cfg.RebindEvery > 0 {
			s.rebindAt = now.Add(s.cfg.RebindEvery)
		}

	case StateConnected:
		if s.cfg.RebindEvery > 0 && !now.Before(s.rebindAt) {
			s.Counters.Rebinds++
			s.closeConn()
			s.state = StateIdle
			return
		}

	case StateRetryWait:
		if !now.Before(s.retryUntil) {
			s.state = StateIdle
		}
	}
}

func (s *Supervisor) enterRetryWait(now time.Time) {
	s.closeConn()
	s.state = StateRetryWait
	s.retryUntil = now.Add(RetryWait)
}

func (s *Supervisor) closeConn() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// Send transmits one fully-built (header+body+tag) datagram. It is only
// valid to call when State() == StateConnected; callers (the
// scheduler) are expected to check this and drop the datagram
// otherwise, per spec.md §7: "no error in the outbound path is
// surfaced to the ingest path."
func (s *Supervisor) Send(now time.Time, datagram []byte) error {
	if s.state != StateConnected || s.conn == nil {
		return fmt.Errorf("egress: send while not connected (state=%s)", s.state)
	}
	n, err := s.conn.Write(datagram)
	if err != nil {
		s.Counters.SendFail++
		s.enterRetryWait(now)
		return err
	}
	s.Counters.TxCount++
	s.Counters.TxBytes += uint64(n)
	return nil
}

// Close releases the socket, if any. Safe to call in any state.
func (s *Supervisor) Close() {
	s.closeConn()
}
