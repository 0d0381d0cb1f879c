package transport

import (
	"sync"
	"testing"
	"time"
)

type memLink struct {
	out chan Packet
	in  chan Packet
}

func newMemLinkPair() (a, b *memLink) {
	ab := make(chan Packet, 256)
	ba := make(chan Packet, 256)
	return &memLink{out: ab, in: ba}, &memLink{out: ba, in: ab}
}

func (m *memLink) Send(p Packet) { m.out <- p }
func (m *memLink) Recv() (Packet, bool) {
	p, ok := <-m.in
	return p, ok
}

func TestConnTransfersPayloadEndToEnd(t *testing.T) {
	a, b := newMemLinkPair()
	connA := NewConn(a, 16, nil)
	connB := NewConn(b, 16, nil)

	payload := []byte("the quick brown fox jumps over the lazy dog, repeated for length: " +
		"the quick brown fox jumps over the lazy dog")

	var wg sync.WaitGroup
	var gotB []byte
	var errB error
	wg.Add(1)
	go func() {
		defer wg.Done()
		gotB, errB = connB.Run(nil)
	}()

	done := make(chan struct{})
	var gotA []byte
	var errA error
	go func() {
		gotA, errA = connA.Run(payload)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for sender to finish")
	}
	wg.Wait()

	if errA != nil {
		t.Fatalf("sender error: %v", errA)
	}
	if errB != nil {
		t.Fatalf("receiver error: %v", errB)
	}
	if string(gotB) != string(payload) {
		t.Fatalf("receiver got %d bytes, want %d:\n got=%q\nwant=%q", len(gotB), len(payload), gotB, payload)
	}
	_ = gotA
}
