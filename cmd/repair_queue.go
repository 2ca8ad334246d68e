package cmd

import (
	"container/list"
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/frugalos/frugalos/internal/logger"
)

const defaultRepairConcurrencyLimit = 4

// repairQueueExecutor is RQ (distilled spec §4.3): a FIFO of versions needing a
// real repair, gated onto a bounded number of in-flight jobs by both a
// concurrency limit and an idleness threshold. Grounded on cmd/mrf.go's
// healRoutine: a bounded dispatch loop over a pending set, logged-and-dropped
// failures, no automatic retry.
type repairQueueExecutor struct {
	nodeID   NodeID
	device   Device
	client   StorageClient
	activity ActivityProbe
	spawner  Spawner
	metrics  *SynchronizerMetrics

	concurrencyLimit atomic.Uint64
	idleness         atomic.Value // stores RepairIdleness

	mu       sync.Mutex
	pending  *list.List // FIFO of ObjectVersion
	inFlight map[ObjectVersion]struct{}

	completions chan repairResult
}

type repairResult struct {
	version ObjectVersion
	err     error
}

// newRepairQueueExecutor builds RQ with the given initial idleness threshold.
func newRepairQueueExecutor(
	nodeID NodeID,
	device Device,
	client StorageClient,
	activity ActivityProbe,
	spawner Spawner,
	metrics *SynchronizerMetrics,
	initialThreshold RepairIdleness,
) *repairQueueExecutor {
	q := &repairQueueExecutor{
		nodeID:      nodeID,
		device:      device,
		client:      client,
		activity:    activity,
		spawner:     spawner,
		metrics:     metrics,
		pending:     list.New(),
		inFlight:    make(map[ObjectVersion]struct{}),
		completions: make(chan repairResult, 4096),
	}
	q.concurrencyLimit.Store(defaultRepairConcurrencyLimit)
	q.idleness.Store(initialThreshold)
	return q
}

// Push enqueues v for repair (distilled spec §4.3).
func (q *repairQueueExecutor) Push(v ObjectVersion) {
	q.metrics.incEnqueued(classRepair)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending.PushBack(v)
}

// SetRepairIdlenessThreshold atomically replaces the idleness gate.
func (q *repairQueueExecutor) SetRepairIdlenessThreshold(t RepairIdleness) {
	q.idleness.Store(t)
}

// SetConcurrencyLimit atomically replaces the in-flight job cap.
func (q *repairQueueExecutor) SetConcurrencyLimit(n uint64) {
	if n == 0 {
		n = defaultRepairConcurrencyLimit
	}
	q.concurrencyLimit.Store(n)
}

// Poll drains completed jobs, then admits as many new ones as the concurrency
// limit and idleness gate allow. Never stops, never fails (distilled spec
// §4.3/§7): any reconstruct/write failure is logged and the job is simply not
// re-enqueued. Returns true if any state changed (useful for tests/drivers
// that want to know whether there's more work to do right away).
func (q *repairQueueExecutor) Poll(ctx context.Context) bool {
	progressed := q.drainCompletions(ctx)
	progressed = q.admit(ctx) || progressed
	return progressed
}

func (q *repairQueueExecutor) drainCompletions(ctx context.Context) bool {
	progressed := false
	for {
		select {
		case r := <-q.completions:
			progressed = true
			q.mu.Lock()
			delete(q.inFlight, r.version)
			q.mu.Unlock()
			if r.err != nil {
				logger.LogIf(ctx, r.err, "node_id", q.nodeID, "version", r.version)
				continue
			}
			q.metrics.incDequeued(classRepair)
		default:
			return progressed
		}
	}
}

func (q *repairQueueExecutor) admit(ctx context.Context) bool {
	admitted := false
	for {
		v, ok := q.tryPop(ctx)
		if !ok {
			return admitted
		}
		admitted = true
		q.dispatch(ctx, v)
	}
}

// tryPop pops the next version off the FIFO iff admission is allowed right
// now: in-flight count below the limit, and either the idleness gate is
// Disabled or the segment has been idle for at least the threshold duration
// (distilled spec §4.3, P4/P5).
func (q *repairQueueExecutor) tryPop(ctx context.Context) (ObjectVersion, bool) {
	idleness := q.idleness.Load().(RepairIdleness)
	if !idleness.Disabled() && q.activity.IdleFor() < idleness.Duration {
		return 0, false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if uint64(len(q.inFlight)) >= q.concurrencyLimit.Load() {
		return 0, false
	}
	front := q.pending.Front()
	if front == nil {
		return 0, false
	}
	q.pending.Remove(front)
	v := front.Value.(ObjectVersion)
	q.inFlight[v] = struct{}{}
	return v, true
}

func (q *repairQueueExecutor) dispatch(ctx context.Context, v ObjectVersion) {
	q.spawner.Spawn(func() {
		data, err := q.client.Reconstruct(ctx, v)
		if err == nil {
			err = q.device.Put(ctx, v, data)
		}
		q.completions <- repairResult{version: v, err: err}
	})
}

// PendingLen and InFlightLen are observability helpers for tests and the
// status CLI.
func (q *repairQueueExecutor) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

func (q *repairQueueExecutor) InFlightLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}
