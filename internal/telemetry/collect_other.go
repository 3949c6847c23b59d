//go:build !linux

package telemetry

import "runtime"

// Collect on non-Linux platforms returns a best-effort Snapshot built
// from portable stdlib facilities only: load averages, memory and CPU
// temperature all require /proc and /sys, so they're left zero. Exists
// so the module still builds and tests off Linux; production runs on
// Linux, where collect_linux.go's Collect is authoritative.
func (c *Collector) Collect() Snapshot {
	var s Snapshot
	s.UptimeSeconds = c.Uptime()
	copy(s.KernelRelease[:], runtime.GOOS+"/"+runtime.GOARCH)
	return s
}
