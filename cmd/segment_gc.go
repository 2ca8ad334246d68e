package cmd

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/frugalos/frugalos/internal/logger"
)

// segmentGc is SGC (distilled spec §4.4): a one-shot, resumable bounded-step
// scan over the device's stored versions, deleting anything not present in the
// MDS snapshot and not newer than the watermark. Grounded on
// cmd/data-scanner.go's folder-budget-per-cycle shape, generalized from
// "walk a filesystem tree" to "walk a sorted version listing", and paced with
// golang.org/x/time/rate instead of the teacher's bare time.Sleep between
// cycles (same concern: don't starve foreground I/O).
type segmentGc struct {
	nodeID   NodeID
	device   Device
	snapshot VersionSet
	watermark ObjectVersion
	step     uint64
	metrics  *SegmentGcMetrics
	limiter  *rate.Limiter

	enumerated bool
	versions   []ObjectVersion // versions <= watermark, ascending; set on first Poll
	cursor     int

	done bool
	err  error
}

// newSegmentGc instantiates SGC for one FullSync event. Per I3, the
// Synchronizer only ever holds at most one of these at a time.
func newSegmentGc(
	nodeID NodeID,
	device Device,
	snapshot VersionSet,
	watermark ObjectVersion,
	step uint64,
	metrics *SegmentGcMetrics,
) *segmentGc {
	if step == 0 {
		step = 100
	}
	return &segmentGc{
		nodeID:    nodeID,
		device:    device,
		snapshot:  snapshot,
		watermark: watermark,
		step:      step,
		metrics:   metrics,
		// Burst sized to one full step so a tick's batch never self-throttles;
		// the limiter only paces *across* ticks.
		limiter: rate.NewLimiter(rate.Limit(step), int(step)),
	}
}

// Done reports whether the scan has finished (distilled spec §4.4: "complete
// when the device enumeration is exhausted").
func (g *segmentGc) Done() bool { return g.done }

// Poll advances the scan by up to step versions. Per-version device errors are
// logged and the version skipped, not treated as a scan failure (distilled
// spec §4.4). If enumerating the device itself fails, the scan is torn down:
// Poll returns done=true with the error, and the Synchronizer drops this SGC
// (a subsequent FullSync starts a fresh one).
func (g *segmentGc) Poll(ctx context.Context) (done bool, err error) {
	if g.done {
		return true, g.err
	}

	if !g.enumerated {
		all, listErr := g.device.List(ctx)
		if listErr != nil {
			g.done, g.err = true, listErr
			return true, listErr
		}
		for _, v := range all {
			if v <= g.watermark {
				g.versions = append(g.versions, v)
			}
		}
		g.enumerated = true
		g.metrics.setRemaining(uint64(len(g.versions)))
	}

	if err := g.limiter.WaitN(ctx, 1); err != nil {
		// Context cancellation during pacing: not a scan failure, just stop
		// making progress this tick; the next Poll call retries.
		return false, nil
	}

	end := g.cursor + int(g.step)
	if end > len(g.versions) {
		end = len(g.versions)
	}
	batch := g.versions[g.cursor:end]

	var deleted uint64
	for _, v := range batch {
		if g.snapshot.Contains(v) {
			continue
		}
		if err := g.device.Delete(ctx, v); err != nil {
			logger.LogIf(ctx, err, "node_id", g.nodeID, "version", v)
			continue
		}
		deleted++
	}
	g.metrics.addScanned(uint64(len(batch)))
	if deleted > 0 {
		g.metrics.addDeleted(deleted)
	}

	g.cursor = end
	g.metrics.setRemaining(uint64(len(g.versions) - g.cursor))

	if g.cursor >= len(g.versions) {
		g.done = true
	}
	return g.done, nil
}
