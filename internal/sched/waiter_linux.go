//go:build linux

package sched

import (
	"time"

	"golang.org/x/sys/unix"
)

// linuxWaiter multiplexes over timerfd-backed 1Hz and multi-frame
// timers plus the ingest descriptor via unix.Poll, the "unified poll
// design" original_source/radar.c's main loop uses and DESIGN NOTES
// calls out as preferred over the project's older select()-based
// revisions.
type linuxWaiter struct {
	secondFd     int
	multiFrameFd int // -1 if multi-frame batching is disabled
}

func newWaiter(multiFrameEnable bool, multiFrameInterval time.Duration) (waiter, error) {
	secondFd, err := newTimerfd(time.Second)
	if err != nil {
		return nil, err
	}

	multiFrameFd := -1
	if multiFrameEnable {
		fd, err := newTimerfd(multiFrameInterval)
		if err != nil {
			unix.Close(secondFd)
			return nil, err
		}
		multiFrameFd = fd
	}

	return &linuxWaiter{secondFd: secondFd, multiFrameFd: multiFrameFd}, nil
}

func newTimerfd(period time.Duration) (int, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		return -1, err
	}
	spec := unix.ItimerSpec{
		Interval: unix.NsecToTimespec(period.Nanoseconds()),
		Value:    unix.NsecToTimespec(period.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(fd, 0, &spec, nil); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func (w *linuxWaiter) Wait(ingestFd int) (events, error) {
	fds := make([]unix.PollFd, 0, 3)
	fds = append(fds, unix.PollFd{Fd: int32(w.secondFd), Events: unix.POLLIN})

	multiFrameIdx := -1
	if w.multiFrameFd >= 0 {
		multiFrameIdx = len(fds)
		fds = append(fds, unix.PollFd{Fd: int32(w.multiFrameFd), Events: unix.POLLIN})
	}

	ingestIdx := -1
	if ingestFd >= 0 {
		ingestIdx = len(fds)
		fds = append(fds, unix.PollFd{Fd: int32(ingestFd), Events: unix.POLLIN})
	}

	n, err := unix.Poll(fds, int(pollTimeout/time.Millisecond))
	if err != nil || n == 0 {
		return events{}, err
	}

	var ev events
	if fds[0].Revents&unix.POLLIN != 0 {
		drainTimerfd(w.secondFd)
		ev.Second = true
	}
	if multiFrameIdx >= 0 && fds[multiFrameIdx].Revents&unix.POLLIN != 0 {
		drainTimerfd(w.multiFrameFd)
		ev.MultiFrame = true
	}
	if ingestIdx >= 0 && fds[ingestIdx].Revents&unix.POLLIN != 0 {
		ev.Ingest = true
	}
	return ev, nil
}

// drainTimerfd reads the expiration counter so the descriptor stops
// reporting ready; the 8-byte value itself is unused.
func drainTimerfd(fd int) {
	var buf [8]byte
	unix.Read(fd, buf[:])
}

func (w *linuxWaiter) Close() error {
	unix.Close(w.secondFd)
	if w.multiFrameFd >= 0 {
		unix.Close(w.multiFrameFd)
	}
	return nil
}
