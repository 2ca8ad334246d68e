package cmd

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestSynchronizer() (*Synchronizer, *fakeDevice, *fakeStorageClient) {
	device := newFakeDevice()
	client := newFakeStorageClient()
	s := NewSynchronizer(
		NodeID("node-1"),
		device,
		client,
		&fakeActivityProbe{},
		inlineSpawner{},
		nil,
		NewRepairIdlenessDisabled(),
		100,
	)
	return s, device, client
}

// TestSynchronizerPuttedFlowsThroughToRepair covers scenario 1 (§10): a Putted
// event for a version the device doesn't have ends up repaired via RQ after
// enough Poll calls to drain GQ and then RQ.
func TestSynchronizerPuttedFlowsThroughToRepair(t *testing.T) {
	s, device, _ := newTestSynchronizer()
	s.HandleEvent(NewPuttedEvent(1))

	s.Poll(context.Background())

	if !device.has(1) {
		t.Fatalf("version 1 should have been repaired onto the device")
	}
}

func TestSynchronizerDeletedRemovesFromDeviceWithoutRepair(t *testing.T) {
	s, device, client := newTestSynchronizer()
	_ = device.Put(context.Background(), 1, []byte("x"))
	s.HandleEvent(NewDeletedEvent(1))

	s.Poll(context.Background())

	if device.has(1) {
		t.Fatalf("version 1 should have been deleted")
	}
	if client.callCount() != 0 {
		t.Fatalf("a delete must never trigger a reconstruct, got %d calls", client.callCount())
	}
}

// TestSynchronizerMetadataOnlySkipsEverything: distilled spec §4.1 — a
// metadata-only segment's StorageClient makes HandleEvent a no-op.
func TestSynchronizerMetadataOnlySkipsEverything(t *testing.T) {
	device := newFakeDevice()
	s := NewSynchronizer(
		NodeID("node-1"), device, NewMetadataOnlyClient(),
		&fakeActivityProbe{}, inlineSpawner{}, nil, NewRepairIdlenessDisabled(), 100,
	)
	s.HandleEvent(NewPuttedEvent(1))
	s.Poll(context.Background())

	if device.has(1) {
		t.Fatalf("metadata-only segments must never touch the device")
	}
}

// TestSynchronizerSecondFullSyncWhileRunningIsDropped covers I3: at most one
// segment GC scan runs at a time; a second FullSync arriving mid-scan is
// simply ignored.
func TestSynchronizerSecondFullSyncWhileRunningIsDropped(t *testing.T) {
	s, device, _ := newTestSynchronizer()
	ctx := context.Background()
	for v := ObjectVersion(1); v <= 4; v++ {
		_ = device.Put(ctx, v, []byte("x"))
	}

	firstSnapshot := VersionSetFromSlice([]ObjectVersion{1})
	s.HandleEvent(NewFullSyncEvent(firstSnapshot, 4))
	if !s.SegmentGCInProgress() {
		t.Fatalf("want a scan in progress after the first FullSync")
	}
	firstGC := s.gc

	secondSnapshot := VersionSetFromSlice([]ObjectVersion{1, 2, 3, 4})
	s.HandleEvent(NewFullSyncEvent(secondSnapshot, 4))

	if s.gc != firstGC {
		t.Fatalf("a second FullSync while one is running must be dropped, not replace the running scan")
	}
	if got := testutil.ToFloat64(s.gcMetrics.droppedCounter); got != 1 {
		t.Fatalf("want the dropped FullSync counted once, got %v", got)
	}
}

// TestSynchronizerSetRepairConfigUpdatesSegmentGCStep: the
// SegmentGCConcurrencyLimit knob must actually change what the next FullSync's
// scan uses, not just a field nothing reads.
func TestSynchronizerSetRepairConfigUpdatesSegmentGCStep(t *testing.T) {
	s, device, _ := newTestSynchronizer()
	ctx := context.Background()
	_ = device.Put(ctx, 1, []byte("x"))

	newStep := uint64(7)
	s.SetRepairConfig(RepairConfig{SegmentGCConcurrencyLimit: &newStep})

	s.HandleEvent(NewFullSyncEvent(VersionSetFromSlice([]ObjectVersion{1}), 1))

	if s.gc.step != newStep {
		t.Fatalf("want the updated step size %d applied to the new scan, got %d", newStep, s.gc.step)
	}
}

// TestSynchronizerFullSyncCompletesAndResetsMetrics: after SGC finishes, the
// Synchronizer clears its reference and resets the gauges so the next
// FullSync starts from zero.
func TestSynchronizerFullSyncCompletesAndResetsMetrics(t *testing.T) {
	s, device, _ := newTestSynchronizer()
	ctx := context.Background()
	_ = device.Put(ctx, 1, []byte("x"))
	_ = device.Put(ctx, 2, []byte("x"))

	snapshot := VersionSetFromSlice([]ObjectVersion{1})
	s.HandleEvent(NewFullSyncEvent(snapshot, 2))

	s.Poll(ctx)

	if s.SegmentGCInProgress() {
		t.Fatalf("a single-step scan over 2 versions with the default step should have completed")
	}
	if device.has(2) {
		t.Fatalf("version 2 should have been garbage collected")
	}
	if !device.has(1) {
		t.Fatalf("version 1 is in the snapshot and must survive")
	}
	if s.gcMetrics.scanned.Load() != 0 || s.gcMetrics.deleted.Load() != 0 || s.gcMetrics.remaining.Load() != 0 {
		t.Fatalf("want segment GC metrics reset after completion, got scanned=%d deleted=%d remaining=%d",
			s.gcMetrics.scanned.Load(), s.gcMetrics.deleted.Load(), s.gcMetrics.remaining.Load())
	}

	// A fresh FullSync can now start.
	s.HandleEvent(NewFullSyncEvent(VersionSetFromSlice(nil), 1))
	if !s.SegmentGCInProgress() {
		t.Fatalf("want a new scan to start now that the slot is free")
	}
}
