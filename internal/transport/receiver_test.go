package transport

import (
	"reflect"
	"testing"
)

func TestReceiverStateAckCoalescing(t *testing.T) {
	r := NewReceiverState()
	r.SetSequenceCount(13)

	for _, seq := range []uint16{0, 1, 4, 5, 9, 11, 12} {
		r.Ack(seq)
	}
	wantRanges := []Range{{0, 2}, {4, 6}, {9, 10}, {11, 13}}
	if !reflect.DeepEqual(r.Ranges(), wantRanges) {
		t.Fatalf("ranges = %v, want %v", r.Ranges(), wantRanges)
	}
	wantMissing := []Range{{2, 4}, {6, 9}, {10, 11}}
	if !reflect.DeepEqual(r.Missing(), wantMissing) {
		t.Fatalf("missing = %v, want %v", r.Missing(), wantMissing)
	}

	r.Ack(2)
	wantRanges = []Range{{0, 3}, {4, 6}, {9, 10}, {11, 13}}
	if !reflect.DeepEqual(r.Ranges(), wantRanges) {
		t.Fatalf("after ack(2) ranges = %v, want %v", r.Ranges(), wantRanges)
	}
	wantMissing = []Range{{3, 4}, {6, 9}, {10, 11}}
	if !reflect.DeepEqual(r.Missing(), wantMissing) {
		t.Fatalf("after ack(2) missing = %v, want %v", r.Missing(), wantMissing)
	}

	r.Ack(3)
	wantRanges = []Range{{0, 6}, {9, 10}, {11, 13}}
	if !reflect.DeepEqual(r.Ranges(), wantRanges) {
		t.Fatalf("after ack(3) ranges = %v, want %v", r.Ranges(), wantRanges)
	}
}

func TestReceiverStateCompleted(t *testing.T) {
	r := NewReceiverState()
	r.SetSequenceCount(3)
	if r.Completed() {
		t.Fatal("should not be completed before any ack")
	}
	r.Ack(0)
	r.Ack(1)
	if r.Completed() {
		t.Fatal("should not be completed with a gap remaining")
	}
	r.Ack(2)
	if !r.Completed() {
		t.Fatal("should be completed once every sequence id is acked")
	}
}

func TestReceiverStateDuplicateAckIsNoop(t *testing.T) {
	r := NewReceiverState()
	r.Ack(5)
	r.Ack(5)
	want := []Range{{5, 6}}
	if !reflect.DeepEqual(r.Ranges(), want) {
		t.Fatalf("ranges = %v, want %v", r.Ranges(), want)
	}
}
