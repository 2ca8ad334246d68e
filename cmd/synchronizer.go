package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/frugalos/frugalos/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
)

// Synchronizer is the per-node driver (distilled spec §4.1): it owns GQ, RQ,
// optionally SGC, and the device handle, dispatches MDS events, and drives
// sub-executors to quiescence on each scheduling tick. Grounded on
// synchronizer.rs's Synchronizer<S> (same field shape: general_queue,
// repair_queue, segment_gc: Option<SegmentGc>) and on cmd/mrf.go's mrfState
// (one struct owning a queue plus a background-loop entrypoint and its own
// metrics).
//
// The driver itself is thin by design: all real state lives in the three
// sub-executors; Poll's only jobs are dispatch, hand-off, and error absorption,
// so one poisoned job can never stall the pipeline (distilled spec §4.1).
type Synchronizer struct {
	nodeID NodeID
	device Device
	client StorageClient

	generalQueue *generalQueueExecutor
	repairQueue  *repairQueueExecutor

	gcMetrics *SegmentGcMetrics
	gcStep    uint64

	mu sync.Mutex
	gc *segmentGc // nil unless a FullSync is in progress (I3)
}

// NewSynchronizer builds a Synchronizer for one node/segment. reg may be nil
// (metrics then aren't exported, useful for tests).
func NewSynchronizer(
	nodeID NodeID,
	device Device,
	client StorageClient,
	activity ActivityProbe,
	spawner Spawner,
	reg prometheus.Registerer,
	initialThreshold RepairIdleness,
	segmentGCStep uint64,
) *Synchronizer {
	metrics := NewSynchronizerMetrics(reg, nodeID)
	return &Synchronizer{
		nodeID:       nodeID,
		device:       device,
		client:       client,
		generalQueue: newGeneralQueueExecutor(nodeID, device, metrics),
		repairQueue:  newRepairQueueExecutor(nodeID, device, client, activity, spawner, metrics, initialThreshold),
		gcMetrics:    NewSegmentGcMetrics(reg, nodeID),
		gcStep:       segmentGCStep,
	}
}

// HandleEvent classifies and dispatches one MDS event (distilled spec §4.1).
// Synchronous and non-suspending: it only enqueues (SPEC_FULL.md §7).
func (s *Synchronizer) HandleEvent(event MDSEvent) {
	if s.client.IsMetadata() {
		// Metadata-only segments skip all synchronization work.
		return
	}
	switch event.Kind() {
	case EventPutted, EventDeleted:
		s.generalQueue.Push(event)
	case EventFullSync:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gc != nil {
			// A second FullSync while one is running is dropped (I3), but
			// counted and logged for observability (SPEC_FULL.md §6.1).
			s.gcMetrics.incDropped()
			logger.LogIf(context.Background(), errSegmentGCInProgress, "node_id", s.nodeID)
			return
		}
		s.gc = newSegmentGc(s.nodeID, s.device, event.FullSync.Snapshot, event.FullSync.NextCommit, s.gcStep, s.gcMetrics)
	}
}

// SetRepairIdlenessThreshold forwards to RQ.
func (s *Synchronizer) SetRepairIdlenessThreshold(t RepairIdleness) {
	s.repairQueue.SetRepairIdlenessThreshold(t)
}

// SetRepairConfig applies any subset of the control message's knobs
// (distilled spec §4.1/§6). Unknown/absent fields are left unchanged.
func (s *Synchronizer) SetRepairConfig(cfg RepairConfig) {
	if cfg.RepairConcurrencyLimit != nil {
		s.repairQueue.SetConcurrencyLimit(*cfg.RepairConcurrencyLimit)
	}
	if cfg.RepairIdlenessThreshold != nil {
		s.repairQueue.SetRepairIdlenessThreshold(*cfg.RepairIdlenessThreshold)
	}
	if cfg.SegmentGCConcurrencyLimit != nil {
		// Takes effect on the next FullSync; a scan already in progress keeps
		// the step size it was constructed with.
		s.mu.Lock()
		s.gcStep = *cfg.SegmentGCConcurrencyLimit
		s.mu.Unlock()
	}
}

// Poll is a single drive step: advance SGC to completion if ready, drain any
// versions produced by GQ into RQ, advance RQ. Never halts, never propagates
// errors upward — a failing sub-task is logged and the executor continues
// (distilled spec §4.1).
func (s *Synchronizer) Poll(ctx context.Context) {
	s.pollSegmentGC(ctx)

	for _, v := range s.generalQueue.Poll(ctx) {
		s.repairQueue.Push(v)
	}

	// Never stops, never fails.
	s.repairQueue.Poll(ctx)
}

func (s *Synchronizer) pollSegmentGC(ctx context.Context) {
	s.mu.Lock()
	gc := s.gc
	s.mu.Unlock()
	if gc == nil {
		return
	}

	done, err := gc.Poll(ctx)
	if err != nil {
		logger.LogIf(ctx, err, "node_id", s.nodeID)
	}
	if !done {
		return
	}

	// Full sync is done (or aborted on error). Clear the slot and reset
	// metrics so the next FullSync starts from zero, matching
	// synchronizer.rs's poll loop.
	s.mu.Lock()
	s.gc = nil
	s.mu.Unlock()
	s.gcMetrics.Reset()
}

// Run drives Poll on a ticker until ctx is cancelled; this is the daemon's
// background goroutine (cmd/server_main.go). Poll itself stays synchronous so
// tests can call it directly without a running goroutine.
func (s *Synchronizer) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// SegmentGCInProgress reports whether an SGC scan is currently running, for
// tests (P6) and the status CLI.
func (s *Synchronizer) SegmentGCInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gc != nil
}

// RepairQueuePendingLen and RepairQueueInFlightLen expose RQ's depth for tests
// and the status CLI.
func (s *Synchronizer) RepairQueuePendingLen() int { return s.repairQueue.PendingLen() }
func (s *Synchronizer) RepairQueueInFlightLen() int { return s.repairQueue.InFlightLen() }
