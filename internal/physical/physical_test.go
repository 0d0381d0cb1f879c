package physical

import (
	"io"
	"log"
	"testing"

	"github.com/cwsl/athernet/internal/linecode"
	"github.com/cwsl/athernet/internal/ring"
)

func testConfig() Config {
	return Config{
		SampleRate:      48000,
		PreambleLen:     200,
		PreambleFreqLo:  3000,
		PreambleFreqHi:  7000,
		PaddingZeroByte: 4,
		MaxFrameBytes:   64,
	}
}

func TestSendReceiveLoopback(t *testing.T) {
	cfg := testConfig()
	samples := ring.New(1 << 20)
	logger := log.New(io.Discard, "", 0)
	tx := New(cfg, samples, samples, logger)

	payload := linecode.BytesToBits([]byte("hi"))
	// Pad to a multiple of 4 bits for 4b/5b framing.
	for len(payload)%4 != 0 {
		payload = append(payload, false)
	}

	done := make(chan struct{})
	go func() {
		tx.Send(payload)
		// The preamble detector confirms a peak only after more than a
		// preamble's length of further samples, as a live microphone would
		// keep supplying; model that with trailing silence.
		samples.Push(cfg.PreambleLen+1, func(dst []float32) {})
		close(done)
	}()
	<-done

	rx := New(cfg, samples, samples, logger)
	got := rx.Receive()

	if len(got) < len(payload) {
		t.Fatalf("received %d bits, want at least %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("bit %d mismatch: got %v want %v", i, got[i], payload[i])
		}
	}
}
