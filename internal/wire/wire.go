// Package wire defines the on-wire envelope for messages sent to the
// aggregator: a common header, an opcode-specific body, and a trailing
// authentication tag. All multi-byte integers are little-endian and
// structures are packed with no padding.
package wire

import "encoding/binary"

// Opcodes for the outbound envelope.
const (
	OpModeAC      = 0x01
	OpModeS       = 0x02
	OpModeES      = 0x03
	OpMultiFrame  = 0x04
	OpKeepalive   = 0x80
	OpTelemetry   = 0x81
	OpRadioStats  = 0x82
)

// Payload lengths by message class.
const (
	ModeACLen = 2
	ModeSSLen = 7
	ModeESLen = 14
	MlatLen   = 6
	AuthTagLen = 8

	// MaxMultiFrame is the maximum number of ES records a single
	// opcode-0x04 datagram may carry.
	MaxMultiFrame = 32
)

// HeaderLen is the size in bytes of the common header that precedes
// every opcode body: key(8) | ts_us(8) | seq(4) | opcode(1).
const HeaderLen = 8 + 8 + 4 + 1

// Header is the common prefix of every outbound datagram.
type Header struct {
	Key    uint64
	TSUs   uint64
	Seq    uint32
	Opcode uint8
}

// PutHeader writes h into buf[0:HeaderLen]. buf must be at least HeaderLen bytes.
func PutHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Key)
	binary.LittleEndian.PutUint64(buf[8:16], h.TSUs)
	binary.LittleEndian.PutUint32(buf[16:20], h.Seq)
	buf[20] = h.Opcode
}

// Record is one Mode-S Extended Squitter sub-message as carried inside
// a multi-frame datagram: mlat[6] | rssi[1] | payload[14].
type Record struct {
	MLAT    [MlatLen]byte
	RSSI    byte
	Payload [ModeESLen]byte
}

// RecordLen is the packed size of a Record on the wire.
const RecordLen = MlatLen + 1 + ModeESLen

// PutRecord writes r into buf[0:RecordLen].
func PutRecord(buf []byte, r Record) {
	copy(buf[0:MlatLen], r.MLAT[:])
	buf[MlatLen] = r.RSSI
	copy(buf[MlatLen+1:], r.Payload[:])
}

// BuildSingle builds header + mlat + rssi + payload for opcodes 0x01-0x03,
// leaving room for the trailing auth tag (not yet written). Returns the
// full buffer (len == HeaderLen+6+1+len(payload)+AuthTagLen) and the
// slice of that buffer which must be signed (everything but the tag).
func BuildSingle(h Header, mlat [MlatLen]byte, rssi byte, payload []byte) (full []byte, signable []byte) {
	bodyLen := MlatLen + 1 + len(payload)
	full = make([]byte, HeaderLen+bodyLen+AuthTagLen)
	PutHeader(full, h)
	off := HeaderLen
	copy(full[off:off+MlatLen], mlat[:])
	off += MlatLen
	full[off] = rssi
	off++
	copy(full[off:off+len(payload)], payload)
	return full, full[:HeaderLen+bodyLen]
}

// BuildMultiFrame builds header + count + records for opcode 0x04,
// leaving room for the trailing auth tag.
func BuildMultiFrame(h Header, records []Record) (full []byte, signable []byte) {
	bodyLen := 1 + len(records)*RecordLen
	full = make([]byte, HeaderLen+bodyLen+AuthTagLen)
	PutHeader(full, h)
	off := HeaderLen
	full[off] = byte(len(records))
	off++
	for _, r := range records {
		PutRecord(full[off:off+RecordLen], r)
		off += RecordLen
	}
	return full, full[:HeaderLen+bodyLen]
}

// BuildKeepalive builds header + version triple for opcode 0x80.
func BuildKeepalive(h Header, verMajor, verMinor, verPatch byte) (full []byte, signable []byte) {
	full = make([]byte, HeaderLen+3+AuthTagLen)
	PutHeader(full, h)
	full[HeaderLen+0] = verMajor
	full[HeaderLen+1] = verMinor
	full[HeaderLen+2] = verPatch
	return full, full[:HeaderLen+3]
}

// BuildOpaque wraps a pre-serialized opcode body (used by stats/telemetry,
// whose bodies are built by their own packages) with the common header
// and room for the auth tag.
func BuildOpaque(h Header, body []byte) (full []byte, signable []byte) {
	full = make([]byte, HeaderLen+len(body)+AuthTagLen)
	PutHeader(full, h)
	copy(full[HeaderLen:], body)
	return full, full[:HeaderLen+len(body)]
}

// PutTag writes tag into the last AuthTagLen bytes of full.
func PutTag(full []byte, tag [AuthTagLen]byte) {
	copy(full[len(full)-AuthTagLen:], tag[:])
}
