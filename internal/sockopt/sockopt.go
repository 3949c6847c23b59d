// Package sockopt reaches into a *net.UDPConn's underlying file
// descriptor to apply socket options the standard library does not
// expose directly: the IP_TOS byte used for DSCP marking.
//
// Grounded on runZeroInc-conniver's pkg/exporter, which uses
// github.com/higebu/netfd's GetFdFromConn to recover a raw fd from a
// net.Conn for syscall-level inspection; here the fd is used to apply
// golang.org/x/sys/unix.SetsockoptByte rather than to read tcpinfo.
package sockopt

import (
	"fmt"
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// MaxDSCP is the largest value accepted for the DSCP configuration
// option (a 6-bit field).
const MaxDSCP = 63

// SetTOS sets the IPv4 Type-of-Service byte on conn's underlying socket
// to dscp<<2, matching original_source/udp.c's treatment of the
// configured "qos" value. dscp must be in [0, MaxDSCP].
func SetTOS(conn *net.UDPConn, dscp int) error {
	if dscp < 0 || dscp > MaxDSCP {
		return fmt.Errorf("sockopt: dscp %d out of range [0,%d]", dscp, MaxDSCP)
	}
	fd := netfd.GetFdFromConn(conn)
	tos := dscp << 2
	return unix.SetsockoptByte(fd, unix.IPPROTO_IP, unix.IP_TOS, byte(tos))
}

// Fd exposes the raw file descriptor backing conn, for callers (the
// scheduler's poll set, the TCP ingest reader) that need to select/poll
// on a net.Conn directly. Grounded on runZeroInc-conniver/pkg/exporter
// and runZeroInc-sockstats/pkg/exporter, both of which key a
// map[net.Conn]... and call netfd.GetFdFromConn(conn) directly rather
// than duplicating the descriptor via conn.(*net.TCPConn).File(),
// which hands back a dup()'d fd the caller then has to remember to
// close.
func Fd(conn net.Conn) int {
	return netfd.GetFdFromConn(conn)
}
