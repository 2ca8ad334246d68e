package cmd

import "errors"

// Error classes the synchronizer distinguishes when deciding whether to log-and-drop
// (the common case, per the package's "never stops, never fails" contract) or to
// surface a caller-visible failure (only the control-RPC boundary does this).
var (
	// errDeviceIO: transient local I/O, logged and dropped; a
	// subsequent FullSync will resurface the gap.
	errDeviceIO = errors.New("frugalos: device I/O failure")

	// errInsufficientFragments: erasure-code/replica reconstruction is infeasible
	// with the fragments currently reachable; logged and dropped, same as above.
	errInsufficientFragments = errors.New("frugalos: insufficient surviving fragments to reconstruct object")

	// errSegmentGCInProgress: a second FullSync arrived while one scan is still
	// running; the event is dropped (I3).
	errSegmentGCInProgress = errors.New("frugalos: segment gc already in progress")

	// errInvalidRepairConfig: rejected at the CLI/RPC boundary, service state
	// unchanged.
	errInvalidRepairConfig = errors.New("frugalos: invalid repair config")

	// errMetadataSegment: returned by callers that probe whether a segment stores
	// bytes at all; metadata-only segments skip synchronization entirely.
	errMetadataSegment = errors.New("frugalos: segment is metadata-only")
)
