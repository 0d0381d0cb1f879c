package audioio

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestWAVRecorderRoundTripHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	rec, err := NewWAVRecorder(path, 8000)
	if err != nil {
		t.Fatal(err)
	}
	samples := []float32{0, 0.5, -0.5, 1, -1}
	if err := rec.Write(samples); err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE markers")
	}
	dataBytes := binary.LittleEndian.Uint32(data[40:44])
	if int(dataBytes) != len(samples)*2 {
		t.Fatalf("data chunk size = %d, want %d", dataBytes, len(samples)*2)
	}
	if len(data) != 44+len(samples)*2 {
		t.Fatalf("file length = %d, want %d", len(data), 44+len(samples)*2)
	}
}
