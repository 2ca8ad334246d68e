package cmd

import (
	"container/list"
	"context"
	"sync"

	"github.com/frugalos/frugalos/internal/logger"
)

// generalQueueExecutor is GQ (distilled spec §4.2): it consumes Putted/Deleted
// events, performs the cheap local repair-prep probe or local delete, and emits
// versions that still need RQ's network-driven reconstruction.
//
// Grounded on synchronizer.rs's GeneralQueueExecutor semantics and on
// cmd/mrf.go's maintainMRFList, which feeds a channel into a map keyed so
// duplicate entries coalesce — the same shape this queue's pending map uses to
// satisfy "a Delete cancels an earlier pending Put".
type generalQueueExecutor struct {
	logger  nodeLogger
	device  Device
	metrics *SynchronizerMetrics

	mu      sync.Mutex
	order   *list.List                    // FIFO of ObjectVersion, oldest first
	pending map[ObjectVersion]*list.Element // version -> its node in order
	kinds   map[ObjectVersion]EventKind     // version -> latest event kind
}

type nodeLogger struct {
	nodeID NodeID
}

// newGeneralQueueExecutor builds GQ. device and metrics are shared with RQ/SGC.
func newGeneralQueueExecutor(nodeID NodeID, device Device, metrics *SynchronizerMetrics) *generalQueueExecutor {
	return &generalQueueExecutor{
		logger:  nodeLogger{nodeID: nodeID},
		device:  device,
		metrics: metrics,
		order:   list.New(),
		pending: make(map[ObjectVersion]*list.Element),
		kinds:   make(map[ObjectVersion]EventKind),
	}
}

// Push enqueues a Putted or Deleted event. A later event for a version already
// queued replaces its recorded kind in place (I1/coalescing) rather than
// appending a second FIFO entry, so a Delete arriving after a still-pending Put
// cancels the Put instead of racing it.
func (q *generalQueueExecutor) Push(event MDSEvent) {
	v := event.Version()
	class := classRepairPrep
	if event.Kind() == EventDeleted {
		class = classDelete
	}
	q.metrics.incEnqueued(class)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[v]; ok {
		q.kinds[v] = event.Kind()
		return
	}
	q.pending[v] = q.order.PushBack(v)
	q.kinds[v] = event.Kind()
}

// Poll drains the FIFO against the device, in order, and returns the versions
// that need a real repair (Putted events the device doesn't already hold).
// Device errors are logged and the offending item dropped; GQ itself never
// returns an error (distilled spec §4.2).
func (q *generalQueueExecutor) Poll(ctx context.Context) []ObjectVersion {
	items := q.drain()

	var needsRepair []ObjectVersion
	for _, item := range items {
		switch item.kind {
		case EventPutted:
			has, err := q.device.Has(ctx, item.version)
			if err != nil {
				logger.LogIf(ctx, err, "node_id", q.logger.nodeID, "version", item.version)
				continue
			}
			if !has {
				needsRepair = append(needsRepair, item.version)
			}
			q.metrics.incDequeued(classRepairPrep)
		case EventDeleted:
			if err := q.device.Delete(ctx, item.version); err != nil {
				logger.LogIf(ctx, err, "node_id", q.logger.nodeID, "version", item.version)
				continue
			}
			q.metrics.incDequeued(classDelete)
		}
	}
	return needsRepair
}

type queueItem struct {
	version ObjectVersion
	kind    EventKind
}

// drain empties the FIFO, returning items in push order with each version's
// most recently recorded kind.
func (q *generalQueueExecutor) drain() []queueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]queueItem, 0, q.order.Len())
	for e := q.order.Front(); e != nil; e = e.Next() {
		v := e.Value.(ObjectVersion)
		items = append(items, queueItem{version: v, kind: q.kinds[v]})
	}
	q.order.Init()
	q.pending = make(map[ObjectVersion]*list.Element)
	q.kinds = make(map[ObjectVersion]EventKind)
	return items
}

// Len reports the number of distinct versions currently queued, for tests.
func (q *generalQueueExecutor) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len()
}
