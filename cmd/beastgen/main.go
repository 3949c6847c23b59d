// Command beastgen is a development aid: it serves a synthetic BEAST
// binary stream over TCP, simulating a handful of moving aircraft, so
// radarfeed can be exercised end-to-end without real RF hardware.
//
// Grounded on the teacher's cmd/mockserver/main.go: the same simulated
// aircraft model (position/speed/heading/climb-rate random walk) and
// the same escape-stuffing BEAST encoder, restructured around
// pflag/zerolog and emitting DF17 Extended Squitter payloads that
// match internal/beast's frame layout exactly.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const (
	typeModeES = byte(0x33)
	escape     = byte(0x1A)

	dfAdsbExtendedSquitter = 17
	tcIdent                = 4
	tcAirbornePos          = 11
	tcAirborneVel          = 19
)

// aircraft is one simulated target, updated on every tick of the
// generator loop.
type aircraft struct {
	icao      uint32
	callsign  string
	lat, lon  float64
	alt       int
	speed     int
	heading   int
	climbRate int
	odd       bool
	lastSeen  time.Time
}

func (a *aircraft) step(now time.Time) {
	elapsed := now.Sub(a.lastSeen).Seconds()
	a.lastSeen = now

	distanceNM := float64(a.speed) * elapsed / 3600.0
	headingRad := float64(a.heading) * math.Pi / 180.0
	latFactor := math.Cos(a.lat * math.Pi / 180.0)

	a.lon += (distanceNM * math.Sin(headingRad)) / (60.0 * latFactor)
	a.lat += (distanceNM * math.Cos(headingRad)) / 60.0
	a.alt += int((float64(a.climbRate) * elapsed) / 60.0)

	if rand.Float64() < 0.05 {
		a.heading = (a.heading + rand.Intn(3) - 1 + 360) % 360
	}
	if rand.Float64() < 0.02 {
		a.climbRate = rand.Intn(2000) - 1000
	}
	a.odd = !a.odd
}

// generator owns the simulated fleet and the set of connected BEAST
// clients.
type generator struct {
	mu      sync.Mutex
	fleet   []*aircraft
	clients map[net.Conn]struct{}
	log     zerolog.Logger
}

func newGenerator(log zerolog.Logger) *generator {
	return &generator{
		clients: make(map[net.Conn]struct{}),
		log:     log,
	}
}

func (g *generator) addAircraft(a *aircraft) {
	a.lastSeen = time.Now()
	g.fleet = append(g.fleet, a)
}

func (g *generator) serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("beastgen: listen: %w", err)
	}
	defer ln.Close()
	g.log.Info().Str("addr", addr).Msg("serving synthetic beast stream")

	go g.tickLoop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("beastgen: accept: %w", err)
		}
		g.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

		g.mu.Lock()
		g.clients[conn] = struct{}{}
		g.mu.Unlock()

		go g.drain(conn)
	}
}

// drain discards whatever the client sends (radarfeed never writes to
// a BEAST-TCP source, but a half-closed read keeps the FD's EOF
// detectable) and removes the client once it disconnects.
func (g *generator) drain(conn net.Conn) {
	defer func() {
		conn.Close()
		g.mu.Lock()
		delete(g.clients, conn)
		g.mu.Unlock()
		g.log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client disconnected")
	}()

	buf := make([]byte, 256)
	for {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		if _, err := conn.Read(buf); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
	}
}

func (g *generator) tickLoop() {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		g.tick()
	}
}

func (g *generator) tick() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.clients) == 0 {
		for _, a := range g.fleet {
			a.step(time.Now())
		}
		return
	}

	now := time.Now()
	tsUs := uint64(now.UnixMicro())

	for _, a := range g.fleet {
		a.step(now)

		if rand.Float64() < 0.05 {
			g.broadcast(encodeFrame(identPayload(a.icao, a.callsign), tsUs, rssiSample()))
		}
		g.broadcast(encodeFrame(positionPayload(a.icao, a.lat, a.lon, a.alt, a.odd), tsUs, rssiSample()))
		g.broadcast(encodeFrame(velocityPayload(a.icao, a.speed, a.heading, a.climbRate), tsUs, rssiSample()))
	}
}

func (g *generator) broadcast(frame []byte) {
	for conn := range g.clients {
		if _, err := conn.Write(frame); err != nil {
			g.log.Debug().Err(err).Msg("write to client failed, will be reaped on next read")
		}
	}
}

func rssiSample() byte {
	return byte(rand.Intn(100) + 100)
}

// encodeFrame wraps a 14-byte Extended Squitter payload in the BEAST
// type-0x33 envelope internal/beast.Framer expects: escape, type,
// 6-byte big-endian MLAT timestamp, signal level, payload, every 0x1A
// byte doubled along the way.
func encodeFrame(payload []byte, tsUs uint64, rssi byte) []byte {
	buf := make([]byte, 0, 2+6+1+len(payload)*2)
	buf = append(buf, escape, typeModeES)

	for i := 5; i >= 0; i-- {
		b := byte(tsUs >> (8 * i))
		buf = append(buf, b)
		if b == escape {
			buf = append(buf, b)
		}
	}

	buf = append(buf, rssi)
	if rssi == escape {
		buf = append(buf, rssi)
	}

	for _, b := range payload {
		buf = append(buf, b)
		if b == escape {
			buf = append(buf, b)
		}
	}
	return buf
}

var callsignCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

func encodeCallsignChar(c rune) int {
	if idx := strings.IndexRune(callsignCharset, c); idx != -1 {
		return idx
	}
	return 36
}

func identPayload(icao uint32, callsign string) []byte {
	msg := make([]byte, 11)
	msg[0] = (dfAdsbExtendedSquitter << 3) | 5
	msg[1] = byte(icao >> 16)
	msg[2] = byte(icao >> 8)
	msg[3] = byte(icao)
	msg[4] = tcIdent << 3

	padded := callsign
	if len(padded) < 8 {
		padded += strings.Repeat(" ", 8-len(padded))
	} else if len(padded) > 8 {
		padded = padded[:8]
	}

	chars := make([]int, 8)
	for i, c := range padded {
		chars[i] = encodeCallsignChar(c)
	}

	msg[5] = byte((chars[0] << 2) | (chars[1] >> 4))
	msg[6] = byte(((chars[1] & 0x0F) << 4) | (chars[2] >> 2))
	msg[7] = byte(((chars[2] & 0x03) << 6) | chars[3])
	msg[8] = byte((chars[4] << 2) | (chars[5] >> 4))
	msg[9] = byte(((chars[5] & 0x0F) << 4) | (chars[6] >> 2))
	msg[10] = byte(((chars[6] & 0x03) << 6) | chars[7])

	return padMessage(msg)
}

func positionPayload(icao uint32, lat, lon float64, alt int, odd bool) []byte {
	msg := make([]byte, 11)
	msg[0] = (dfAdsbExtendedSquitter << 3) | 5
	msg[1] = byte(icao >> 16)
	msg[2] = byte(icao >> 8)
	msg[3] = byte(icao)

	tc := byte(tcAirbornePos << 3)
	if odd {
		tc |= 1
	}
	msg[4] = tc

	altCode := (alt + 1000) / 25
	msg[5] = byte(altCode >> 4)
	msg[6] = byte((altCode & 0x0F) << 4)

	latCPR := uint32((lat / 360.0) * 131072)
	lonCPR := uint32((lon / 360.0) * 131072)

	msg[6] |= byte((latCPR >> 15) & 0x0F)
	msg[7] = byte(latCPR >> 7)
	msg[8] = byte((latCPR & 0x7F) << 1)
	msg[8] |= byte((lonCPR >> 16) & 0x01)
	msg[9] = byte(lonCPR >> 8)
	msg[10] = byte(lonCPR)

	return padMessage(msg)
}

func velocityPayload(icao uint32, speed, heading, climbRate int) []byte {
	msg := make([]byte, 11)
	msg[0] = (dfAdsbExtendedSquitter << 3) | 5
	msg[1] = byte(icao >> 16)
	msg[2] = byte(icao >> 8)
	msg[3] = byte(icao)
	msg[4] = (tcAirborneVel << 3) | 1
	msg[5] = 0x40

	ewVel := int(float64(speed) * math.Sin(float64(heading)*math.Pi/180.0))
	ewDir := 0
	if ewVel < 0 {
		ewDir = 1
		ewVel = -ewVel
	}
	ewVel++
	msg[5] |= byte(ewDir << 2)
	msg[5] |= byte((ewVel >> 8) & 0x03)
	msg[6] = byte(ewVel)

	nsVel := int(float64(speed) * math.Cos(float64(heading)*math.Pi/180.0))
	nsDir := 0
	if nsVel < 0 {
		nsDir = 1
		nsVel = -nsVel
	}
	nsVel++
	msg[7] = byte(nsDir << 7)
	msg[7] |= byte((nsVel >> 3) & 0x7F)
	msg[8] = byte((nsVel & 0x07) << 5)

	vertRate := climbRate
	vertSign := 0
	if vertRate < 0 {
		vertSign = 1
		vertRate = -vertRate
	}
	vertRate = (vertRate + 32) / 64
	msg[8] |= byte(vertSign << 3)
	msg[8] |= byte((vertRate >> 6) & 0x07)
	msg[9] = byte((vertRate & 0x3F) << 2)

	return padMessage(msg)
}

// padMessage appends three zero parity bytes: internal/beast and the
// classifier it feeds don't validate CRC (see DESIGN.md), so a real
// checksum buys nothing here and the teacher's mock server left the
// same field zeroed "for simplicity".
func padMessage(msg []byte) []byte {
	return append(msg, 0, 0, 0)
}

func main() {
	addr := pflag.String("listen", "127.0.0.1:30005", "address to serve the synthetic BEAST stream on")
	seed := pflag.Int64("seed", time.Now().UnixNano(), "random seed for the simulated fleet")
	pflag.Parse()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	rand.Seed(*seed)

	g := newGenerator(log)
	g.addAircraft(&aircraft{icao: 0xABCDEF, callsign: "SWA1234", lat: 37.6188, lon: -122.3756, alt: 10000, speed: 450, heading: 45})
	g.addAircraft(&aircraft{icao: 0x123456, callsign: "UAL789", lat: 37.7749, lon: -122.4194, alt: 25000, speed: 500, heading: 270})
	g.addAircraft(&aircraft{icao: 0x789ABC, callsign: "DAL456", lat: 37.8716, lon: -122.2727, alt: 35000, speed: 550, heading: 180})
	g.addAircraft(&aircraft{icao: 0x456DEF, callsign: "AAL100", lat: 38.0100, lon: -122.1000, alt: 15000, speed: 400, heading: 135})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		os.Exit(0)
	}()

	if err := g.serve(*addr); err != nil {
		log.Fatal().Err(err).Msg("beastgen exited")
	}
}
