// Package ring implements the SampleRing: a fixed-capacity single-producer
// single-consumer queue of audio samples shared between an audio-device
// callback and a protocol-layer goroutine.
//
// The design follows the original acoustic-modem ring buffer: head/len are
// tracked with atomics and samples are copied outside any lock; each
// push/pop takes mu only briefly, to check for and wake a parked waiter,
// and a single waiting reader or writer parks on a one-shot wake channel
// when it asks for more than is currently available. At most one reader and
// one writer may be parked at a time; a second concurrent parker is a
// programmer error and panics, matching the producer/consumer contract the
// ring is built for.
package ring

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Sample is one PCM sample in [-1, 1].
type Sample = float32

// Ring is a fixed-capacity SPSC circular buffer of Sample.
type Ring struct {
	buf  []Sample
	cap  int
	head atomic.Uint64 // next index to read, mod cap
	len  atomic.Uint64 // number of live samples

	mu           sync.Mutex
	parkedReader chan struct{} // non-nil while a reader is parked
	readerWant   int
	parkedWriter chan struct{} // non-nil while a writer is parked
	writerWant   int

	closed atomic.Bool
}

// New returns a ring with the given fixed capacity.
func New(capacity int) *Ring {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Ring{
		buf: make([]Sample, capacity),
		cap: capacity,
	}
}

// Cap returns the ring's fixed capacity.
func (r *Ring) Cap() int { return r.cap }

// Len returns the number of samples currently queued.
func (r *Ring) Len() int { return int(r.len.Load()) }

// Free returns the number of additional samples that can be pushed without
// blocking.
func (r *Ring) Free() int { return r.cap - r.Len() }

// Close wakes any parked reader/writer permanently; subsequent Push/Pop
// calls that would otherwise block return immediately with ok=false.
func (r *Ring) Close() {
	r.closed.Store(true)
	r.mu.Lock()
	if r.parkedReader != nil {
		close(r.parkedReader)
		r.parkedReader = nil
	}
	if r.parkedWriter != nil {
		close(r.parkedWriter)
		r.parkedWriter = nil
	}
	r.mu.Unlock()
}

// Push writes count samples produced by fill into the ring, blocking until
// enough capacity is free. fill is called with a slice of exactly count
// zeroed samples to populate; it must not retain the slice. Push panics if
// count exceeds the ring's capacity (a programmer error, not a runtime
// condition) or if another writer is already parked.
func (r *Ring) Push(count int, fill func(dst []Sample)) (ok bool) {
	if count == 0 {
		return true
	}
	if count > r.cap {
		panic(fmt.Sprintf("ring: push count %d exceeds capacity %d", count, r.cap))
	}
	for {
		if r.closed.Load() {
			return false
		}
		if r.Free() >= count {
			break
		}
		wake := r.parkWriter(count)
		if wake == nil {
			return false
		}
		<-wake
	}

	head := int(r.head.Load())
	length := int(r.len.Load())
	writeAt := (head + length) % r.cap

	first := r.buf[writeAt:]
	if len(first) > count {
		first = first[:count]
	}
	second := r.buf[:count-len(first)]

	tmp := make([]Sample, count)
	fill(tmp)
	copy(first, tmp)
	copy(second, tmp[len(first):])

	r.len.Add(uint64(count))
	r.wakeReaderIfSatisfied()
	return true
}

// Pop reads count samples into drain, blocking until count samples are
// available. Pop panics if count exceeds the ring's capacity or if another
// reader is already parked.
func (r *Ring) Pop(count int, drain func(src []Sample)) (ok bool) {
	if count == 0 {
		return true
	}
	if count > r.cap {
		panic(fmt.Sprintf("ring: pop count %d exceeds capacity %d", count, r.cap))
	}
	for {
		if r.Len() >= count {
			break
		}
		if r.closed.Load() {
			return false
		}
		wake := r.parkReader(count)
		if wake == nil {
			return false
		}
		<-wake
	}

	head := int(r.head.Load())
	first := r.buf[head:]
	if len(first) > count {
		first = first[:count]
	}
	second := r.buf[:count-len(first)]

	tmp := make([]Sample, count)
	copy(tmp, first)
	copy(tmp[len(first):], second)
	drain(tmp)

	r.head.Store(uint64((head + count) % r.cap))
	r.len.Add(^uint64(count - 1)) // len -= count
	r.wakeWriterIfSatisfied()
	return true
}

// TryPop reads up to count samples without blocking, returning the number
// actually read.
func (r *Ring) TryPop(count int, drain func(src []Sample)) int {
	avail := r.Len()
	if avail == 0 {
		return 0
	}
	if count > avail {
		count = avail
	}
	r.Pop(count, drain)
	return count
}

// PopAtLeast blocks until at least min samples are available (or the ring
// is closed), then reads up to max of what is currently available into
// drain. It returns the number of samples read, and false only when the
// ring is closed and empty; once the ring is closed, whatever remains
// (even fewer than min samples) is read and reported with true. This
// is the variant a streaming reader uses when it wants "whatever is ready,
// capped at a budget" rather than an exact count — the physical layer
// demodulator doesn't know in advance how many samples a frame needs.
func (r *Ring) PopAtLeast(min, max int, drain func(src []Sample)) (n int, ok bool) {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	if min > r.cap {
		panic(fmt.Sprintf("ring: PopAtLeast min %d exceeds capacity %d", min, r.cap))
	}
	for {
		avail := r.Len()
		if avail >= min || (r.closed.Load() && avail > 0) {
			n = max
			if n > avail {
				n = avail
			}
			if n > r.cap {
				n = r.cap
			}
			r.Pop(n, drain)
			return n, true
		}
		if r.closed.Load() {
			return 0, false
		}
		wake := r.parkReader(min)
		if wake == nil {
			return 0, false
		}
		<-wake
	}
}

// parkReader returns a channel the caller should wait on before
// re-checking Len(), or nil if the ring is closed. The want condition is
// re-checked under mu (it was only checked outside the lock by the
// caller) so a Push that lands between that check and here isn't missed:
// if it's already satisfied, parkReader hands back a pre-closed channel
// instead of parking, so the caller's <-wake returns immediately.
func (r *Ring) parkReader(want int) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		return nil
	}
	if r.Len() >= want {
		already := make(chan struct{})
		close(already)
		return already
	}
	if r.parkedReader != nil {
		panic("ring: a reader is already parked")
	}
	r.parkedReader = make(chan struct{})
	r.readerWant = want
	return r.parkedReader
}

// parkWriter is parkReader's counterpart, re-checking Free() under mu for
// the same reason.
func (r *Ring) parkWriter(want int) chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		return nil
	}
	if r.Free() >= want {
		already := make(chan struct{})
		close(already)
		return already
	}
	if r.parkedWriter != nil {
		panic("ring: a writer is already parked")
	}
	r.parkedWriter = make(chan struct{})
	r.writerWant = want
	return r.parkedWriter
}

func (r *Ring) wakeReaderIfSatisfied() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parkedReader != nil && r.Len() >= r.readerWant {
		close(r.parkedReader)
		r.parkedReader = nil
	}
}

func (r *Ring) wakeWriterIfSatisfied() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parkedWriter != nil && r.Free() >= r.writerWant {
		close(r.parkedWriter)
		r.parkedWriter = nil
	}
}
