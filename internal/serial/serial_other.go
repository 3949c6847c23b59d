//go:build !linux

// Serial device configuration uses Linux-only termios ioctls; this
// stub keeps internal/ingest portable for non-Linux builds/tests.
// Production runs on Linux, where serial.go is authoritative.
package serial

import (
	"fmt"
	"os"
	"runtime"
)

type Baud int

const (
	BaudNative3M Baud = 3_000_000
	BaudHULC921k Baud = 921_600
)

func Open(path string, baud Baud) (*os.File, error) {
	return nil, fmt.Errorf("serial: unsupported on %s", runtime.GOOS)
}
