package cmd

import (
	"context"
	"testing"
)

func TestSegmentGCDeletesVersionsNotInSnapshot(t *testing.T) {
	device := newFakeDevice()
	ctx := context.Background()
	for v := ObjectVersion(1); v <= 4; v++ {
		_ = device.Put(ctx, v, []byte("x"))
	}
	snapshot := VersionSetFromSlice([]ObjectVersion{1, 3})
	metrics := NewSegmentGcMetrics(nil, NodeID("node-1"))

	gc := newSegmentGc(NodeID("node-1"), device, snapshot, 4, 100, metrics)

	done, err := gc.Poll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatalf("a single step should finish a 4-version scan with step=100")
	}
	if device.has(2) || device.has(4) {
		t.Fatalf("versions not in the snapshot should have been deleted")
	}
	if !device.has(1) || !device.has(3) {
		t.Fatalf("versions in the snapshot must survive")
	}
}

func TestSegmentGCIgnoresVersionsAboveWatermark(t *testing.T) {
	device := newFakeDevice()
	ctx := context.Background()
	_ = device.Put(ctx, 1, []byte("x"))
	_ = device.Put(ctx, 10, []byte("x")) // newer than the FullSync's watermark
	snapshot := VersionSetFromSlice(nil)
	metrics := NewSegmentGcMetrics(nil, NodeID("node-1"))

	gc := newSegmentGc(NodeID("node-1"), device, snapshot, 5, 100, metrics)
	if _, err := gc.Poll(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if device.has(1) {
		t.Fatalf("version 1 is <= watermark and absent from snapshot, should be deleted")
	}
	if !device.has(10) {
		t.Fatalf("version 10 is above the watermark and must not be touched")
	}
}

// TestSegmentGCResumesAcrossBoundedSteps: with step < total versions, Poll must
// make partial progress and report done=false until the scan is exhausted.
func TestSegmentGCResumesAcrossBoundedSteps(t *testing.T) {
	device := newFakeDevice()
	ctx := context.Background()
	for v := ObjectVersion(1); v <= 4; v++ {
		_ = device.Put(ctx, v, []byte("x"))
	}
	snapshot := VersionSetFromSlice(nil)
	metrics := NewSegmentGcMetrics(nil, NodeID("node-1"))

	gc := newSegmentGc(NodeID("node-1"), device, snapshot, 4, 2, metrics)

	done, err := gc.Poll(ctx)
	if err != nil || done {
		t.Fatalf("want an unfinished first step, got done=%v err=%v", done, err)
	}
	if device.has(1) || device.has(2) {
		t.Fatalf("first step should have deleted versions 1 and 2")
	}
	if !device.has(3) || !device.has(4) {
		t.Fatalf("second step has not run yet, versions 3 and 4 must still be present")
	}

	done, err = gc.Poll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !done {
		t.Fatalf("second step should finish the scan")
	}
	if device.has(3) || device.has(4) {
		t.Fatalf("second step should have deleted versions 3 and 4")
	}
}

func TestSegmentGCDeviceErrorsAreSkippedNotFatal(t *testing.T) {
	device := newFakeDevice()
	ctx := context.Background()
	_ = device.Put(ctx, 1, []byte("x"))
	_ = device.Put(ctx, 2, []byte("x"))
	device.failDelete = map[ObjectVersion]error{1: errDeviceIO}
	snapshot := VersionSetFromSlice(nil)
	metrics := NewSegmentGcMetrics(nil, NodeID("node-1"))

	gc := newSegmentGc(NodeID("node-1"), device, snapshot, 2, 100, metrics)
	done, err := gc.Poll(ctx)
	if err != nil {
		t.Fatalf("a per-version delete failure must not surface as a scan error: %v", err)
	}
	if !done {
		t.Fatalf("scan should still complete despite the one failed delete")
	}
	if !device.has(1) {
		t.Fatalf("version 1's failed delete should leave it in place")
	}
	if device.has(2) {
		t.Fatalf("version 2 should still have been deleted")
	}
}
