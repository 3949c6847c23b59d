package sched

import "time"

// events reports which of the scheduler's up-to-three wait sources
// fired on the most recent Wait call.
type events struct {
	Second     bool
	MultiFrame bool
	Ingest     bool
}

// waiter is the platform multiplexing primitive: one blocking wait
// over the 1 Hz timer, the optional multi-frame timer, and the ingest
// descriptor (when connected). ingestFd is -1 when the source isn't
// currently connected, matching spec.md §4.8's "only when currently
// CONNECTED".
type waiter interface {
	Wait(ingestFd int) (events, error)
	Close() error
}

// pollTimeout bounds every wait, matching spec.md §5's "multiplexing
// primitive with a bounded timeout (<= 250ms)".
const pollTimeout = 250 * time.Millisecond
