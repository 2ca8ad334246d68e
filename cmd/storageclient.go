package cmd

import "context"

// StorageClient hides replication vs. erasure-coded fetch behind one
// abstraction (SPEC_FULL.md §8). RQ calls Reconstruct to rebuild an object's
// bytes from peers; the Synchronizer calls IsMetadata to decide whether a
// segment does synchronization work at all.
type StorageClient interface {
	// Reconstruct fetches and assembles the full object bytes for v from
	// whatever surviving fragments/replicas are reachable. Returns
	// errInsufficientFragments if quorum cannot be reached, or the error a peer
	// fetch returned when one failed outright.
	Reconstruct(ctx context.Context, v ObjectVersion) ([]byte, error)

	// IsMetadata reports whether this segment stores bytes at all; metadata-only
	// segments make every synchronization operation a no-op upstream of here.
	IsMetadata() bool
}

// metadataOnlyClient is the StorageClient for metadata-only buckets: it never
// needs to reconstruct anything, because there is never any byte content to
// synchronize (distilled spec §4.1: "metadata-only segments skip all
// synchronization work").
type metadataOnlyClient struct{}

// NewMetadataOnlyClient returns the StorageClient for metadata-only segments.
func NewMetadataOnlyClient() StorageClient { return metadataOnlyClient{} }

func (metadataOnlyClient) Reconstruct(context.Context, ObjectVersion) ([]byte, error) {
	return nil, errMetadataSegment
}

func (metadataOnlyClient) IsMetadata() bool { return true }
