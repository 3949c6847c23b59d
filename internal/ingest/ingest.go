// Package ingest implements the source supervisor (C5): an FSM shared
// by the TCP and serial BEAST transports that owns connect/retry/read
// lifecycle and exposes a single non-blocking Read to the scheduler.
//
// Grounded on internal/app/app.go's connectToBeast/receiveBeastData
// (the teacher's own dial-and-retry shape), reworked from a free
// goroutine-per-connection model into the polled FSM
// original_source/beast_tcp.c and beast_serial.c implement, per
// spec.md §4.2 and the "unified poll design" DESIGN NOTES.
package ingest

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/1090mhz-uk/radarfeed/internal/serial"
	"github.com/1090mhz-uk/radarfeed/internal/sockopt"
)

// State is a source supervisor lifecycle state.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateRetryWait
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnected:
		return "CONNECTED"
	case StateRetryWait:
		return "RETRY_WAIT"
	default:
		return "UNKNOWN"
	}
}

// RetryWait is the cool-down before a reconnect attempt: 3s, the floor
// of the 3-5s cool-down range.
const RetryWait = 3 * time.Second

// Counters mirrors spec.md §4.2's supervisor counter set.
type Counters struct {
	ConnectSuccess uint64
	ConnectFail    uint64
	Disconnect     uint64
	SocketError    uint64
	SocketReads    uint64
	BytesRead      uint64
}

// reader is the minimal surface both transports need: a descriptor the
// scheduler can poll, and a non-blocking byte read.
type reader interface {
	Fd() (int, error)
	Read(buf []byte) (int, error)
	Close() error
}

// Source drives one transport's connect/read/retry lifecycle. Callers
// (the scheduler) call Tick once per second and Read whenever the
// descriptor is readable.
type Source struct {
	dial func() (reader, error)

	state      State
	conn       reader
	retryUntil time.Time

	Counters Counters
}

func newSource(dial func() (reader, error)) *Source {
	return &Source{dial: dial, state: StateDisconnected}
}

// NewTCP returns a Source that dials host:port over TCP, matching
// spec.md §6's BEAST-over-TCP contract (no handshake, client role).
func NewTCP(host string, port int) *Source {
	addr := fmt.Sprintf("%s:%d", host, port)
	return newSource(func() (reader, error) {
		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			return nil, err
		}
		return tcpReader{conn.(*net.TCPConn)}, nil
	})
}

// NewSerial returns a Source that opens a local serial device at the
// given baud, matching spec.md §6's BEAST-over-serial contract.
func NewSerial(path string, baud serial.Baud) *Source {
	return newSource(func() (reader, error) {
		f, err := serial.Open(path, baud)
		if err != nil {
			return nil, err
		}
		return fileReader{f}, nil
	})
}

// State reports the supervisor's current state.
func (s *Source) State() State { return s.state }

// Tick advances the RETRY_WAIT cool-down and attempts a connect from
// DISCONNECTED. now is supplied by the caller for testability.
func (s *Source) Tick(now time.Time) {
	switch s.state {
	case StateDisconnected:
		conn, err := s.dial()
		if err != nil {
			s.Counters.ConnectFail++
			s.state = StateRetryWait
			s.retryUntil = now.Add(RetryWait)
			return
		}
		s.conn = conn
		s.Counters.ConnectSuccess++
		s.state = StateConnected

	case StateRetryWait:
		if !now.Before(s.retryUntil) {
			s.state = StateDisconnected
		}

	case StateConnected:
		// readiness is driven by the scheduler calling Read when the
		// descriptor is ready; nothing to do on the 1Hz tick itself.
	}
}

// Fd returns the descriptor to add to the scheduler's poll set, valid
// only while State() == StateConnected.
func (s *Source) Fd() (int, error) {
	if s.state != StateConnected {
		return -1, fmt.Errorf("ingest: Fd called while %s", s.state)
	}
	return s.conn.Fd()
}

// Read drains one chunk from the source into buf. A read of zero bytes
// with a nil error (EOF) or any error closes the descriptor and enters
// RETRY_WAIT, per spec.md §4.2.
func (s *Source) Read(buf []byte) (int, error) {
	if s.state != StateConnected {
		return 0, fmt.Errorf("ingest: Read called while %s", s.state)
	}
	n, err := s.conn.Read(buf)
	if err != nil && errors.Is(err, syscall.EAGAIN) {
		// No data currently available on a non-blocking descriptor;
		// per spec.md §5 this is not a disconnect.
		return 0, nil
	}
	if err != nil || n == 0 {
		s.teardown()
		if err != nil {
			s.Counters.SocketError++
		} else {
			s.Counters.Disconnect++
		}
		return n, err
	}
	s.Counters.SocketReads++
	s.Counters.BytesRead += uint64(n)
	return n, nil
}

func (s *Source) teardown() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = StateRetryWait
	s.retryUntil = time.Now().Add(RetryWait)
}

// Close releases the underlying descriptor, if any.
func (s *Source) Close() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.state = StateDisconnected
}

type tcpReader struct{ conn *net.TCPConn }

// Fd uses sockopt.Fd (netfd.GetFdFromConn) rather than conn.File(),
// which would dup() the descriptor on every call and leak one fd per
// scheduler poll iteration since nothing here ever closes it.
func (t tcpReader) Fd() (int, error) { return sockopt.Fd(t.conn), nil }

func (t tcpReader) Read(buf []byte) (int, error) { return t.conn.Read(buf) }
func (t tcpReader) Close() error                 { return t.conn.Close() }

type fileReader struct{ f *os.File }

func (r fileReader) Fd() (int, error)             { return int(r.f.Fd()), nil }
func (r fileReader) Read(buf []byte) (int, error) { return r.f.Read(buf) }
func (r fileReader) Close() error                 { return r.f.Close() }
