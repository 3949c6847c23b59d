//go:build !linux

package sched

import "time"

// portableWaiter is the non-Linux fallback multiplexer: two
// time.Tickers in place of timerfd, and a short sleep standing in for
// waiting on the ingest descriptor (the ingest FD isn't poll-able
// through the standard net/os APIs on every platform this module
// might be built on for local testing). Exists so the module still
// builds and tests on macOS/CI, per SPEC_FULL.md; production targets
// Linux, where waiter_linux.go's unix.Poll-based waiter runs.
type portableWaiter struct {
	second     *time.Ticker
	multiFrame *time.Ticker // nil if multi-frame batching is disabled
}

func newWaiter(multiFrameEnable bool, multiFrameInterval time.Duration) (waiter, error) {
	w := &portableWaiter{second: time.NewTicker(time.Second)}
	if multiFrameEnable {
		w.multiFrame = time.NewTicker(multiFrameInterval)
	}
	return w, nil
}

func (w *portableWaiter) Wait(ingestFd int) (events, error) {
	var multiFrameC <-chan time.Time
	if w.multiFrame != nil {
		multiFrameC = w.multiFrame.C
	}

	select {
	case <-w.second.C:
		return events{Second: true}, nil
	case <-multiFrameC:
		return events{MultiFrame: true}, nil
	case <-time.After(pollTimeout):
		// No timer fired within the bounded wait; if a descriptor is
		// connected, give the ingest path a chance to run even though
		// this fallback can't select on an arbitrary fd.
		return events{Ingest: ingestFd >= 0}, nil
	}
}

func (w *portableWaiter) Close() error {
	w.second.Stop()
	if w.multiFrame != nil {
		w.multiFrame.Stop()
	}
	return nil
}
