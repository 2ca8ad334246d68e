package cmd

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// metricsNamespace/metricsSubsystem match SPEC_FULL.md §8's
// frugalos_synchronizer_* naming exactly.
const (
	metricsNamespace = "frugalos"
	metricsSubsystem = "synchronizer"
)

// itemClass is one of the three counter labels the distilled spec names.
type itemClass string

const (
	classRepair     itemClass = "repair"
	classRepairPrep itemClass = "repair_prep"
	classDelete     itemClass = "delete"
)

// SynchronizerMetrics bundles the enqueued/dequeued counters (I5: monotonically
// non-decreasing per class) registered on a prometheus.Registry. This plays the
// role of one of cmd/metrics-v2.go's MetricsGroups, simplified to direct
// collector registration: this repo has exactly one metrics family, not the ~30
// heterogeneous subsystems MinIO's MetricsGroup/Metric DSL exists to unify.
type SynchronizerMetrics struct {
	nodeID NodeID

	enqueued *prometheus.CounterVec
	dequeued *prometheus.CounterVec
}

// NewSynchronizerMetrics registers the synchronizer's counters on reg and
// returns a handle for the executors to increment.
func NewSynchronizerMetrics(reg prometheus.Registerer, nodeID NodeID) *SynchronizerMetrics {
	m := &SynchronizerMetrics{
		nodeID: nodeID,
		enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "enqueued_items",
			Help:      "Number of items enqueued into the synchronizer's queues, by class.",
		}, []string{"type", "node_id"}),
		dequeued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "dequeued_items",
			Help:      "Number of items successfully processed out of the synchronizer's queues, by class.",
		}, []string{"type", "node_id"}),
	}
	if reg != nil {
		reg.MustRegister(m.enqueued, m.dequeued)
	}
	return m
}

func (m *SynchronizerMetrics) incEnqueued(class itemClass) {
	m.enqueued.WithLabelValues(string(class), m.nodeID.String()).Inc()
}

func (m *SynchronizerMetrics) incDequeued(class itemClass) {
	m.dequeued.WithLabelValues(string(class), m.nodeID.String()).Inc()
}

// SegmentGcMetrics are the scanned/deleted/remaining gauges published by SGC
// (distilled spec §4.4), reset on scan completion or teardown. Plain
// go.uber.org/atomic values, the same primitive cmd/data-scanner.go uses for its
// own cross-goroutine scan counters (imported there as uatomic).
type SegmentGcMetrics struct {
	nodeID NodeID

	scannedGauge   prometheus.Gauge
	deletedGauge   prometheus.Gauge
	remainingGauge prometheus.Gauge
	droppedCounter prometheus.Counter

	scanned   atomic.Uint64
	deleted   atomic.Uint64
	remaining atomic.Uint64
}

// NewSegmentGcMetrics registers the scan-progress gauges on reg.
func NewSegmentGcMetrics(reg prometheus.Registerer, nodeID NodeID) *SegmentGcMetrics {
	g := &SegmentGcMetrics{
		nodeID: nodeID,
		scannedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "segment_gc_scanned",
			Help:        "Versions examined by the current/most recent segment GC scan.",
			ConstLabels: prometheus.Labels{"node_id": nodeID.String()},
		}),
		deletedGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "segment_gc_deleted",
			Help:        "Versions deleted by the current/most recent segment GC scan.",
			ConstLabels: prometheus.Labels{"node_id": nodeID.String()},
		}),
		remainingGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "segment_gc_remaining",
			Help:        "Versions left to examine in the current segment GC scan.",
			ConstLabels: prometheus.Labels{"node_id": nodeID.String()},
		}),
		droppedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Subsystem:   metricsSubsystem,
			Name:        "segment_gc_dropped_total",
			Help:        "FullSync events dropped because a segment GC scan was already in progress.",
			ConstLabels: prometheus.Labels{"node_id": nodeID.String()},
		}),
	}
	if reg != nil {
		reg.MustRegister(g.scannedGauge, g.deletedGauge, g.remainingGauge, g.droppedCounter)
	}
	return g
}

// incDropped counts a FullSync event dropped because a scan was already in
// progress (I3); unlike scanned/deleted/remaining it is never reset, since it
// tracks lifetime occurrences rather than the current scan's progress.
func (g *SegmentGcMetrics) incDropped() {
	g.droppedCounter.Inc()
}

func (g *SegmentGcMetrics) addScanned(n uint64) {
	g.scanned.Add(n)
	g.scannedGauge.Set(float64(g.scanned.Load()))
}

func (g *SegmentGcMetrics) addDeleted(n uint64) {
	g.deleted.Add(n)
	g.deletedGauge.Set(float64(g.deleted.Load()))
}

func (g *SegmentGcMetrics) setRemaining(n uint64) {
	g.remaining.Store(n)
	g.remainingGauge.Set(float64(n))
}

// Reset zeroes all three gauges; called when a scan completes or is torn down
// (distilled spec §4.4: "resets on completion").
func (g *SegmentGcMetrics) Reset() {
	g.scanned.Store(0)
	g.deleted.Store(0)
	g.remaining.Store(0)
	g.scannedGauge.Set(0)
	g.deletedGauge.Set(0)
	g.remainingGauge.Set(0)
}
