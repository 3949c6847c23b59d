package sockopt

import (
	"net"
	"testing"
)

func TestSetTOSRejectsOutOfRange(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Skipf("cannot open loopback UDP socket in this sandbox: %v", err)
	}
	defer conn.Close()

	if err := SetTOS(conn, MaxDSCP+1); err == nil {
		t.Fatalf("expected error for dscp %d, got nil", MaxDSCP+1)
	}
	if err := SetTOS(conn, -1); err == nil {
		t.Fatalf("expected error for negative dscp, got nil")
	}
}

func TestSetTOSAppliesInRange(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Skipf("cannot open loopback UDP socket in this sandbox: %v", err)
	}
	defer conn.Close()

	if err := SetTOS(conn, 46); err != nil {
		t.Fatalf("SetTOS(46) failed: %v", err)
	}
}

func TestFdNonNegative(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Skipf("cannot open loopback UDP socket in this sandbox: %v", err)
	}
	defer conn.Close()

	if Fd(conn) < 0 {
		t.Fatalf("Fd returned negative descriptor")
	}
}
