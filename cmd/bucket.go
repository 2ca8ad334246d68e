package cmd

import "github.com/cespare/xxhash/v2"

// SegmentForObject hashes objectID to one of segmentCount segments. This is the
// Go rendering of src/bucket.rs's Bucket::get_segment, which hashes the object id
// with SipHasher13 and reduces modulo the segment count; this repo uses xxhash
// (already in the teacher's go.mod) instead, since the exact hash family is not a
// spec invariant, only "stable partitioning of objects across segments" is.
//
// Routing to the node/disk that owns the resulting segment is out of scope here
// (delegated, SPEC_FULL.md §1): callers combine this with cluster membership
// information that this package does not hold.
func SegmentForObject(objectID string, segmentCount uint16) uint16 {
	if segmentCount == 0 {
		return 0
	}
	sum := xxhash.Sum64String(objectID)
	return uint16(sum % uint64(segmentCount))
}
