// Package telemetry implements the platform-telemetry half of C9:
// opcode 0x81, a periodic snapshot of the kernel release, memory,
// uptime, load averages and CPU temperature. The only identity field is
// KernelRelease (the uname release on Linux, GOOS/GOARCH elsewhere); no
// OS name or CPU model is collected or sent. spec.md §1 treats reading
// platform information as an external collaborator; this package
// supplies that collaborator, grounded on original_source/telemetry.c's
// field selection and the uname()-via-x/sys/unix pattern
// runZeroInc-sockstats' pkg/kernel uses.
package telemetry

import (
	"encoding/binary"
	"time"
)

// Snapshot is a single platform telemetry sample.
type Snapshot struct {
	UptimeSeconds        uint32
	Load1, Load5, Load15 uint32 // fixed-point, scaled by 100
	MemTotalKB           uint64
	MemFreeKB            uint64
	CPUTempMilliC        int32 // 0 if no matching thermal zone was found
	KernelRelease        [32]byte
}

// EncodedLen is the fixed size of an encoded Snapshot body.
const EncodedLen = 4 + 4 + 4 + 4 + 8 + 8 + 4 + 32

// Encode packs s into the opcode-0x81 body.
func (s Snapshot) Encode() []byte {
	buf := make([]byte, EncodedLen)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:], s.UptimeSeconds)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], s.Load1)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], s.Load5)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], s.Load15)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:], s.MemTotalKB)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], s.MemFreeKB)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:], uint32(s.CPUTempMilliC))
	off += 4
	copy(buf[off:], s.KernelRelease[:])
	return buf
}

// Scheduler mirrors stats.Scheduler's countdown shape for the
// independent telemetry interval.
type Scheduler struct {
	intervalTicks uint32
	countdown     uint32
}

// NewScheduler builds a Scheduler for an interval expressed in 1 Hz
// ticks, firing its first Tick() after intervalTicks/2 ticks.
func NewScheduler(intervalTicks uint32) *Scheduler {
	return &Scheduler{intervalTicks: intervalTicks, countdown: intervalTicks / 2}
}

// Tick advances the countdown by one second, returning true when a
// snapshot is due.
func (s *Scheduler) Tick() bool {
	if s.countdown > 0 {
		s.countdown--
	}
	if s.countdown == 0 {
		s.countdown = s.intervalTicks
		return true
	}
	return false
}

// Collector gathers platform telemetry snapshots. startedAt anchors
// Uptime(); NewCollector sets it to time.Now and nothing changes it
// afterwards.
type Collector struct {
	startedAt time.Time

	// ThermalZoneAllowlist restricts which /sys/class/thermal/thermal_zone*
	// "type" files are trusted as the CPU temperature source, matching
	// original_source/telemetry.c's allow-list of known CPU zone names.
	ThermalZoneAllowlist []string
}

// DefaultThermalZoneAllowlist is the set of thermal zone type names
// original_source/telemetry.c recognizes as CPU temperature sources.
var DefaultThermalZoneAllowlist = []string{"cpu-thermal", "soc-thermal", "x86_pkg_temp"}

// NewCollector returns a Collector anchored to the current time.
func NewCollector() *Collector {
	return &Collector{startedAt: time.Now(), ThermalZoneAllowlist: DefaultThermalZoneAllowlist}
}

// Uptime reports elapsed seconds since the Collector was constructed,
// used as a portable fallback for hosts where /proc/uptime is
// unavailable (non-Linux builds); see collect_linux.go for the
// authoritative Linux source of these fields.
func (c *Collector) Uptime() uint32 {
	return uint32(time.Since(c.startedAt).Seconds())
}
