package cmd

import "time"

// RepairIdlenessKind discriminates RepairIdleness's two states.
type RepairIdlenessKind int

const (
	// RepairIdlenessDisabled: the idleness gate is off — RQ always admits.
	RepairIdlenessDisabled RepairIdlenessKind = iota
	// RepairIdlenessThreshold: RQ admits only after at least Duration of
	// observed inactivity on the segment.
	RepairIdlenessThreshold
)

// RepairIdleness is `RepairIdleness = Disabled | Threshold(Duration)` from
// distilled spec §3, rendered as a tagged struct rather than an interface so
// it is trivially comparable and zero-value-safe (zero value is
// RepairIdlenessDisabled with a zero Duration, which behaves identically to an
// explicit Disabled).
type RepairIdleness struct {
	Kind     RepairIdlenessKind
	Duration time.Duration
}

// Disabled reports whether the gate is off (always admit).
func (r RepairIdleness) Disabled() bool { return r.Kind == RepairIdlenessDisabled }

// NewRepairIdlenessDisabled builds the Disabled variant.
func NewRepairIdlenessDisabled() RepairIdleness {
	return RepairIdleness{Kind: RepairIdlenessDisabled}
}

// NewRepairIdlenessThreshold builds the Threshold(d) variant.
func NewRepairIdlenessThreshold(d time.Duration) RepairIdleness {
	return RepairIdleness{Kind: RepairIdlenessThreshold, Duration: d}
}

// RepairConfig is the control message from SPEC_FULL.md §4: three independently
// optional knobs. A nil pointer means "leave unchanged" (distilled spec §3).
type RepairConfig struct {
	RepairConcurrencyLimit    *uint64
	RepairIdlenessThreshold   *RepairIdleness
	SegmentGCConcurrencyLimit *uint64
}

// secondsToDuration converts a non-negative float seconds value, as used at
// the CLI and RPC boundaries, into a time.Duration.
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
