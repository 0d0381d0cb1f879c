package ring

import (
	"sync"
	"testing"
)

func TestPushPopFIFO(t *testing.T) {
	r := New(8)
	r.Push(4, func(dst []Sample) {
		for i := range dst {
			dst[i] = Sample(i)
		}
	})
	if r.Len() != 4 {
		t.Fatalf("len = %d, want 4", r.Len())
	}
	var got []Sample
	r.Pop(4, func(src []Sample) {
		got = append(got, src...)
	})
	for i, v := range got {
		if v != Sample(i) {
			t.Fatalf("got[%d] = %v, want %v", i, v, i)
		}
	}
	if r.Len() != 0 {
		t.Fatalf("len = %d, want 0", r.Len())
	}
}

func TestPushPopWraparound(t *testing.T) {
	r := New(4)
	r.Push(3, func(dst []Sample) { dst[0], dst[1], dst[2] = 1, 2, 3 })
	r.Pop(3, func(src []Sample) {})
	r.Push(4, func(dst []Sample) { copy(dst, []Sample{4, 5, 6, 7}) })
	var got []Sample
	r.Pop(4, func(src []Sample) { got = append(got, src...) })
	want := []Sample{4, 5, 6, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wraparound got %v, want %v", got, want)
		}
	}
}

func TestPushBlocksUntilSpaceFreed(t *testing.T) {
	r := New(4)
	r.Push(4, func(dst []Sample) {})

	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		r.Push(2, func(dst []Sample) {})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("push should have blocked: ring was full")
	default:
	}

	r.Pop(2, func(src []Sample) {})
	wg.Wait()
}

func TestPopBlocksUntilDataAvailable(t *testing.T) {
	r := New(4)
	var wg sync.WaitGroup
	wg.Add(1)
	done := make(chan struct{})
	go func() {
		defer wg.Done()
		r.Pop(3, func(src []Sample) {})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("pop should have blocked: no data yet")
	default:
	}

	r.Push(3, func(dst []Sample) {})
	wg.Wait()
}

func TestCloseUnblocksParkedWaiters(t *testing.T) {
	r := New(4)
	done := make(chan bool, 1)
	go func() {
		ok := r.Pop(1, func(src []Sample) {})
		done <- ok
	}()
	r.Close()
	if ok := <-done; ok {
		t.Fatal("Pop after Close should report ok=false")
	}
}

func TestPushCountExceedingCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for push count exceeding capacity")
		}
	}()
	r := New(4)
	r.Push(5, func(dst []Sample) {})
}

func TestStressSPSC(t *testing.T) {
	const total = 1_000_000
	r := New(256)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			n := 37
			if total-i < n {
				n = total - i
			}
			r.Push(n, func(dst []Sample) {
				for j := range dst {
					dst[j] = Sample(i + j)
				}
			})
			i += n
		}
	}()

	sum := 0
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			n := 29
			if total-i < n {
				n = total - i
			}
			r.Pop(n, func(src []Sample) {
				sum += len(src)
			})
			i += n
		}
	}()

	wg.Wait()
	if sum != total {
		t.Fatalf("consumed %d samples, want %d", sum, total)
	}
}
