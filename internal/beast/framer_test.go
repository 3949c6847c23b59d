package beast

import (
	"bytes"
	"testing"
)

// encode escape-stuffs a frame body for injection into a synthetic stream.
func encode(typ byte, body []byte) []byte {
	out := []byte{Escape, typ}
	for _, b := range body {
		out = append(out, b)
		if b == Escape {
			out = append(out, Escape)
		}
	}
	return out
}

func TestFramingRoundTrip(t *testing.T) {
	mlat := []byte{1, 2, 3, 4, 5, 6}
	rssi := byte(0xC8)
	payload := []byte{0x8D, 0x48, 0x40, 0xD6, 0x20, 0x2C, 0xC3, 0x71, 0xC3, 0x2C, 0xE0, 0x57, 0x60, 0x98}

	body := append(append([]byte{}, mlat...), rssi)
	body = append(body, payload...)

	// a frame is only recognized once the NEXT frame's escape+type is
	// seen (or the stream is explicitly terminated), matching the
	// automaton's S3 dispatch rule
	stream := append(encode(TypeModeES, body), Escape, TypeModeAC)

	// split the stream across arbitrary chunk boundaries
	for _, chunkSize := range []int{1, 2, 3, 7, len(stream)} {
		f := NewFramer()
		var frames []Frame
		for i := 0; i < len(stream); i += chunkSize {
			end := i + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			frames = append(frames, f.Write(stream[i:end])...)
		}

		if len(frames) != 1 {
			t.Fatalf("chunkSize=%d: got %d frames, want 1", chunkSize, len(frames))
		}
		fr := frames[0]
		if fr.Type != TypeModeES {
			t.Fatalf("chunkSize=%d: type = %x, want %x", chunkSize, fr.Type, TypeModeES)
		}
		if !bytes.Equal(fr.MLAT[:], mlat) {
			t.Fatalf("chunkSize=%d: mlat mismatch", chunkSize)
		}
		if fr.RSSI != rssi {
			t.Fatalf("chunkSize=%d: rssi = %x, want %x", chunkSize, fr.RSSI, rssi)
		}
		if !bytes.Equal(fr.Payload, payload) {
			t.Fatalf("chunkSize=%d: payload mismatch: %x", chunkSize, fr.Payload)
		}
	}
}

func TestMultipleFramesBackToBack(t *testing.T) {
	p1 := make([]byte, 7)
	p2 := make([]byte, 7)
	for i := range p1 {
		p1[i] = byte(i)
		p2[i] = byte(0x10 + i)
	}

	body1 := append(append([]byte{1, 2, 3, 4, 5, 6}, 0x64), p1...)
	body2 := append(append([]byte{9, 8, 7, 6, 5, 4}, 0x65), p2...)

	stream := append(encode(TypeModeS, body1), encode(TypeModeS, body2)...)
	// body1 is terminated by body2's escape+type; body2 needs an explicit
	// terminator of its own
	stream = append(stream, Escape, TypeModeAC)

	f := NewFramer()
	frames := f.Write(stream)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if !bytes.Equal(frames[0].Payload, p1) || !bytes.Equal(frames[1].Payload, p2) {
		t.Fatalf("payload mismatch across back-to-back frames")
	}
}

func TestEscapedEscapeInsideBody(t *testing.T) {
	// 1A 33 01 02 03 04 05 06 C8 1A 1A 01 02 03 04 05 06 07 08 09 0A 0B 0C 0D
	stream := []byte{
		0x1A, 0x33,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06,
		0xC8,
		0x1A, 0x1A,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D,
		0x1A, 0x31, // terminator: start of next (unrelated) frame
	}

	f := NewFramer()
	frames := f.Write(stream)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}

	fr := frames[0]
	if len(fr.Payload) != 14 {
		t.Fatalf("payload length = %d, want 14", len(fr.Payload))
	}
	if fr.Payload[0] != 0x1A {
		t.Fatalf("payload[0] = %x, want 1A (de-escaped)", fr.Payload[0])
	}
}

func TestGarbageBetweenFramesRecovered(t *testing.T) {
	p1 := make([]byte, 7)
	p2 := make([]byte, 7)
	for i := range p2 {
		p2[i] = byte(i + 1)
	}
	body1 := append(append([]byte{0, 0, 0, 0, 0, 0}, 0x50), p1...)
	body2 := append(append([]byte{1, 1, 1, 1, 1, 1}, 0x51), p2...)

	valid1 := encode(TypeModeS, body1)
	valid2 := encode(TypeModeS, body2)

	// garbage that never contains 0x1A stays inert in the hunt state
	leadGarbage := []byte{0xFF, 0x00, 0x99, 0x7F, 0x40}

	// valid1 is terminated by valid2's leading escape; valid2 is
	// terminated by the trailing explicit marker.
	stream := append(append([]byte{}, leadGarbage...), valid1...)
	stream = append(stream, valid2...)
	stream = append(stream, Escape, TypeModeAC)

	f := NewFramer()
	frames := f.Write(stream)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2 (garbage must not fabricate or swallow frames)", len(frames))
	}
	if !bytes.Equal(frames[0].Payload, p1) || !bytes.Equal(frames[1].Payload, p2) {
		t.Fatalf("payload mismatch: frame recovery corrupted data")
	}
}

func TestOverflowResetsAndCountsBad(t *testing.T) {
	f := NewFramer()

	stream := []byte{Escape, TypeModeES}
	for i := 0; i < MaxFrame+10; i++ {
		stream = append(stream, byte(i))
	}
	// never properly terminated; should not crash and should count bad frames
	f.Write(stream)

	_, bad := f.Stats()
	if bad == 0 {
		t.Fatalf("expected at least one bad frame counted on overflow")
	}
}

func TestUnknownTypeDropped(t *testing.T) {
	f := NewFramer()
	stream := []byte{Escape, 0x99, 0x01, 0x02, Escape, TypeModeAC}
	// 0x99 is not a valid type byte -> S1 falls back to hunt
	frames := f.Write(stream)
	if len(frames) != 0 {
		t.Fatalf("got %d frames from invalid type stream, want 0", len(frames))
	}
}
