package dsp

import "testing"

func TestChirpLengthAndRange(t *testing.T) {
	c := Chirp(200, 3000, 7000, 48000)
	if len(c) != 200 {
		t.Fatalf("len = %d, want 200", len(c))
	}
	for i, v := range c {
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("sample %d = %v out of range", i, v)
		}
	}
}

func TestDetectFindsInsertedHeader(t *testing.T) {
	header := Chirp(200, 3000, 7000, 48000)
	const pos = 2200
	data := make([]float32, 12000)
	for i := range data {
		if i >= pos && i < pos+len(header) {
			data[i] = header[i-pos]
		}
	}
	idx, ok := Detect(data, header)
	if !ok {
		t.Fatal("expected detection")
	}
	// Detection fires a header-length past the true start once correlation
	// has fallen off the peak; allow slack either side of pos+len(header).
	if idx < pos || idx > pos+len(header)+len(header) {
		t.Fatalf("detected index %d far from inserted position %d", idx, pos)
	}
}

func TestDetectNoHeaderReturnsFalse(t *testing.T) {
	header := Chirp(200, 3000, 7000, 48000)
	data := make([]float32, 2000)
	if _, ok := Detect(data, header); ok {
		t.Fatal("expected no detection in silence")
	}
}
