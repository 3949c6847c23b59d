//go:build linux

// Package serial configures the local serial device used by the BEAST
// serial ingest path: 8N1, no parity, CLOCAL, hardware flow control,
// non-blocking reads (VMIN=0, VTIME=0), at one of two fixed baud rates.
//
// Grounded on original_source/beast_serial.c's connect_serial(), which
// drives the same termios fields via tcsetattr(); this replaces that
// call with golang.org/x/sys/unix's Ioctl-based termios access, in the
// style runZeroInc-sockstats uses x/sys/unix for platform-specific
// syscall access (pkg/kernel/kernel_unix.go, pkg/tcpinfo/tcpinfo_linux.go).
package serial

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Baud selects one of the two rates the spec recognizes, by ingest mode.
type Baud int

const (
	// BaudNative3M is used for native Mode-S BEAST serial streams.
	BaudNative3M Baud = 3_000_000
	// BaudHULC921k is used for HULC-mode serial streams.
	BaudHULC921k Baud = 921_600
)

func (b Baud) speed() (uint32, error) {
	switch b {
	case BaudNative3M:
		return unix.B3000000, nil
	case BaudHULC921k:
		return unix.B921600, nil
	default:
		return 0, fmt.Errorf("serial: unsupported baud %d", b)
	}
}

// Open opens path and configures it per spec.md §6's serial ingest
// contract, returning a non-blocking *os.File ready for reads.
func Open(path string, baud Baud) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", path, err)
	}

	if err := configure(int(f.Fd()), baud); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func configure(fd int, baud Baud) error {
	speed, err := baud.speed()
	if err != nil {
		return err
	}

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("serial: get termios: %w", err)
	}

	// 8N1, local line, receiver enabled, hardware flow control. Baud is
	// encoded directly into Cflag's CBAUD field on Linux termios, same
	// as original_source/beast_serial.c's cfsetispeed/cfsetospeed pair.
	t.Cflag &^= unix.PARENB | unix.CSTOPB | unix.CSIZE | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CLOCAL | unix.CREAD | unix.CRTSCTS | speed
	t.Iflag = 0
	t.Oflag = 0
	t.Lflag = 0

	// non-blocking reads: return immediately with whatever is available.
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("serial: set termios: %w", err)
	}
	return nil
}
