package wire

import "testing"

func TestPutHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, HeaderLen)
	h := Header{Key: 0x0123456789abcdef, TSUs: 42, Seq: 7, Opcode: OpModeS}
	PutHeader(buf, h)

	if got := buf[20]; got != OpModeS {
		t.Fatalf("opcode byte = %#x, want %#x", got, OpModeS)
	}
	if buf[16] != 7 {
		t.Fatalf("seq low byte = %d, want 7", buf[16])
	}
}

func TestBuildSingleLayoutAndSignableExcludesTag(t *testing.T) {
	h := Header{Key: 1, TSUs: 2, Seq: 3, Opcode: OpModeAC}
	payload := []byte{0xAA, 0xBB}
	full, signable := BuildSingle(h, [MlatLen]byte{1, 2, 3, 4, 5, 6}, 0x64, payload)

	wantLen := HeaderLen + MlatLen + 1 + len(payload) + AuthTagLen
	if len(full) != wantLen {
		t.Fatalf("len(full) = %d, want %d", len(full), wantLen)
	}
	if len(signable) != wantLen-AuthTagLen {
		t.Fatalf("len(signable) = %d, want %d", len(signable), wantLen-AuthTagLen)
	}
	if full[HeaderLen+MlatLen] != 0x64 {
		t.Fatalf("rssi byte = %#x, want 0x64", full[HeaderLen+MlatLen])
	}
}

func TestBuildMultiFrameEncodesCount(t *testing.T) {
	h := Header{Opcode: OpMultiFrame}
	records := []Record{{RSSI: 1}, {RSSI: 2}, {RSSI: 3}}
	full, signable := BuildMultiFrame(h, records)

	if full[HeaderLen] != byte(len(records)) {
		t.Fatalf("record count byte = %d, want %d", full[HeaderLen], len(records))
	}
	wantSignableLen := HeaderLen + 1 + len(records)*RecordLen
	if len(signable) != wantSignableLen {
		t.Fatalf("len(signable) = %d, want %d", len(signable), wantSignableLen)
	}
}

func TestPutTagWritesLastBytes(t *testing.T) {
	full := make([]byte, HeaderLen+AuthTagLen)
	var tag [AuthTagLen]byte
	for i := range tag {
		tag[i] = byte(i + 1)
	}
	PutTag(full, tag)

	for i := 0; i < AuthTagLen; i++ {
		if full[len(full)-AuthTagLen+i] != byte(i+1) {
			t.Fatalf("tag byte %d = %d, want %d", i, full[len(full)-AuthTagLen+i], i+1)
		}
	}
}
