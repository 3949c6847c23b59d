package batch

import (
	"testing"

	"github.com/1090mhz-uk/radarfeed/internal/wire"
)

func payload(b byte) []byte {
	p := make([]byte, wire.ModeESLen)
	for i := range p {
		p[i] = b
	}
	return p
}

func TestFlushEmptyBufferReturnsNil(t *testing.T) {
	b := New()
	if recs := b.Flush(); recs != nil {
		t.Fatalf("Flush on empty buffer returned %d records, want nil", len(recs))
	}
}

func TestAddAccumulatesUntilFlush(t *testing.T) {
	b := New()
	for i := 0; i < 3; i++ {
		full := b.Add([6]byte{byte(i)}, 0xC8, payload(byte(i)))
		if full {
			t.Fatalf("Add reported full at %d records", i+1)
		}
	}
	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}

	recs := b.Flush()
	if len(recs) != 3 {
		t.Fatalf("Flush returned %d records, want 3", len(recs))
	}
	if b.Len() != 0 {
		t.Fatalf("buffer not empty after Flush")
	}
}

func TestAddReportsFullAtMax(t *testing.T) {
	b := New()
	var full bool
	for i := 0; i < wire.MaxMultiFrame; i++ {
		full = b.Add([6]byte{}, 0, payload(byte(i)))
	}
	if !full {
		t.Fatalf("Add did not report full at the %dth record", wire.MaxMultiFrame)
	}
	if b.Len() != wire.MaxMultiFrame {
		t.Fatalf("Len = %d, want %d", b.Len(), wire.MaxMultiFrame)
	}
}

func TestMultiFrameWireBuild(t *testing.T) {
	b := New()
	for i := 0; i < 3; i++ {
		b.Add([6]byte{byte(i)}, 0xC8, payload(byte(i)))
	}
	recs := b.Flush()

	h := wire.Header{Key: 0x0123456789ABCDEF, TSUs: 1000, Seq: 1, Opcode: wire.OpMultiFrame}
	full, signable := wire.BuildMultiFrame(h, recs)

	wantBodyLen := 1 + 3*wire.RecordLen
	if len(signable) != wire.HeaderLen+wantBodyLen {
		t.Fatalf("signable length = %d, want %d", len(signable), wire.HeaderLen+wantBodyLen)
	}
	if len(full) != wire.HeaderLen+wantBodyLen+wire.AuthTagLen {
		t.Fatalf("full length = %d, want %d", len(full), wire.HeaderLen+wantBodyLen+wire.AuthTagLen)
	}
	if full[wire.HeaderLen] != 3 {
		t.Fatalf("count byte = %d, want 3", full[wire.HeaderLen])
	}
}
