package link

import "testing"

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{
		OffsetOrSeq:   7,
		MoreFragments: true,
		Src:           1,
		Dst:           2,
		Payload:       []byte("hello world"),
	}
	raw := f.Encode()
	got, ok := Decode(raw)
	if !ok {
		t.Fatal("decode rejected a validly-encoded frame")
	}
	if got.OffsetOrSeq != f.OffsetOrSeq || got.MoreFragments != f.MoreFragments ||
		got.Src != f.Src || got.Dst != f.Dst || string(got.Payload) != string(f.Payload) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, f)
	}
}

func TestDecodeRejectsCorruptCRC(t *testing.T) {
	f := Frame{OffsetOrSeq: 1, Src: 1, Dst: 2, Payload: []byte("x")}
	raw := f.Encode()
	raw[len(raw)-1] ^= 0xFF
	if _, ok := Decode(raw); ok {
		t.Fatal("expected CRC mismatch to reject the frame")
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	f := Frame{OffsetOrSeq: 1, Src: 1, Dst: 2, Payload: []byte("hello")}
	raw := f.Encode()
	if _, ok := Decode(raw[:len(raw)-2]); ok {
		t.Fatal("expected truncated frame to be rejected")
	}
}

func TestAckFlagsRoundTrip(t *testing.T) {
	f := Frame{OffsetOrSeq: 5, Ack: true, Src: 9, Dst: 0}
	got, ok := Decode(f.Encode())
	if !ok || !got.Ack || got.MoreFragments {
		t.Fatalf("ack flags not preserved: %+v", got)
	}
}
