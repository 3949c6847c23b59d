//go:build linux

package telemetry

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Collect reads /proc/uptime, /proc/loadavg, /proc/meminfo, uname(), and
// a thermal zone matching ThermalZoneAllowlist into a Snapshot.
// Grounded on original_source/telemetry.c's gather routine.
func (c *Collector) Collect() Snapshot {
	var s Snapshot

	s.UptimeSeconds = readUptime()
	s.Load1, s.Load5, s.Load15 = readLoadAvg()
	s.MemTotalKB, s.MemFreeKB = readMemInfo()
	s.CPUTempMilliC = c.readCPUTemp()

	var uts unix.Utsname
	if unix.Uname(&uts) == nil {
		copy(s.KernelRelease[:], unix.ByteSliceToString(uts.Release[:]))
	}

	return s
}

func readUptime() uint32 {
	f, err := os.Open("/proc/uptime")
	if err != nil {
		return 0
	}
	defer f.Close()

	buf := make([]byte, 64)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return 0
	}

	fields := strings.Fields(string(buf[:n]))
	if len(fields) == 0 {
		return 0
	}
	seconds, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return uint32(seconds)
}

func readLoadAvg() (l1, l5, l15 uint32) {
	f, err := os.Open("/proc/loadavg")
	if err != nil {
		return 0, 0, 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return 0, 0, 0
	}
	fields := strings.Fields(sc.Text())
	if len(fields) < 3 {
		return 0, 0, 0
	}
	l1 = scaledLoad(fields[0])
	l5 = scaledLoad(fields[1])
	l15 = scaledLoad(fields[2])
	return
}

func scaledLoad(s string) uint32 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return uint32(v * 100)
}

func readMemInfo() (totalKB, freeKB uint64) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			totalKB = parseMemInfoLine(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			freeKB = parseMemInfoLine(line)
		}
	}
	return
}

func parseMemInfoLine(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// readCPUTemp scans /sys/class/thermal/thermal_zone* for a zone whose
// "type" matches the allow-list and returns its temperature in
// milli-degrees Celsius, or 0 if none is found.
func (c *Collector) readCPUTemp() int32 {
	zones, err := filepath.Glob("/sys/class/thermal/thermal_zone*")
	if err != nil {
		return 0
	}
	for _, zone := range zones {
		typeBytes, err := os.ReadFile(filepath.Join(zone, "type"))
		if err != nil {
			continue
		}
		zoneType := strings.TrimSpace(string(typeBytes))
		if !allowed(zoneType, c.ThermalZoneAllowlist) {
			continue
		}
		tempBytes, err := os.ReadFile(filepath.Join(zone, "temp"))
		if err != nil {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(string(tempBytes)), 10, 32)
		if err != nil {
			continue
		}
		return int32(v)
	}
	return 0
}

func allowed(name string, allowlist []string) bool {
	for _, a := range allowlist {
		if a == name {
			return true
		}
	}
	return false
}
