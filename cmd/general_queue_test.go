package cmd

import (
	"context"
	"testing"
)

func newTestGeneralQueue() (*generalQueueExecutor, *fakeDevice) {
	device := newFakeDevice()
	metrics := NewSynchronizerMetrics(nil, NodeID("node-1"))
	return newGeneralQueueExecutor(NodeID("node-1"), device, metrics), device
}

func TestGeneralQueuePuttedNeedingRepairIsEmitted(t *testing.T) {
	gq, _ := newTestGeneralQueue()
	gq.Push(NewPuttedEvent(1))

	got := gq.Poll(context.Background())
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("want [1], got %v", got)
	}
}

func TestGeneralQueuePuttedAlreadyOnDeviceIsNotEmitted(t *testing.T) {
	gq, device := newTestGeneralQueue()
	_ = device.Put(context.Background(), 1, []byte("x"))
	gq.Push(NewPuttedEvent(1))

	got := gq.Poll(context.Background())
	if len(got) != 0 {
		t.Fatalf("want no versions needing repair, got %v", got)
	}
}

func TestGeneralQueueDeletedRemovesFromDevice(t *testing.T) {
	gq, device := newTestGeneralQueue()
	_ = device.Put(context.Background(), 1, []byte("x"))
	gq.Push(NewDeletedEvent(1))

	gq.Poll(context.Background())

	if device.has(1) {
		t.Fatalf("version 1 should have been deleted from the device")
	}
}

// TestGeneralQueueDeleteCancelsPendingPut: a Delete arriving before the GQ has
// drained a still-pending Put for the same version coalesces, so the version
// never needs repair and is removed from the device (I1: each version occupies
// at most one queue slot).
func TestGeneralQueueDeleteCancelsPendingPut(t *testing.T) {
	gq, device := newTestGeneralQueue()
	_ = device.Put(context.Background(), 1, []byte("stale"))
	gq.Push(NewPuttedEvent(1))
	gq.Push(NewDeletedEvent(1))

	if gq.Len() != 1 {
		t.Fatalf("want one coalesced entry, got %d", gq.Len())
	}

	got := gq.Poll(context.Background())
	if len(got) != 0 {
		t.Fatalf("want no versions needing repair, got %v", got)
	}
	if device.has(1) {
		t.Fatalf("version 1 should have been deleted, not repaired")
	}
}

func TestGeneralQueuePutCancelsPendingDelete(t *testing.T) {
	gq, device := newTestGeneralQueue()
	gq.Push(NewDeletedEvent(1))
	gq.Push(NewPuttedEvent(1))

	got := gq.Poll(context.Background())
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("want [1] needing repair, got %v", got)
	}
	if device.has(1) {
		t.Fatalf("device should not have been written by GQ itself")
	}
}

func TestGeneralQueuePollDrainsFIFOOrder(t *testing.T) {
	gq, _ := newTestGeneralQueue()
	gq.Push(NewPuttedEvent(3))
	gq.Push(NewPuttedEvent(1))
	gq.Push(NewPuttedEvent(2))

	got := gq.Poll(context.Background())
	want := []ObjectVersion{3, 1, 2}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %v, got %v", want, got)
		}
	}
}

func TestGeneralQueueDeviceErrorDropsItem(t *testing.T) {
	gq, device := newTestGeneralQueue()
	device.failHas = map[ObjectVersion]error{1: errDeviceIO}
	gq.Push(NewPuttedEvent(1))

	got := gq.Poll(context.Background())
	if len(got) != 0 {
		t.Fatalf("a device error should drop the item, not surface it: got %v", got)
	}
}
