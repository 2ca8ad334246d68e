package cmd

import (
	"context"
	"sync"
)

// ReplicaFetcher fetches a full replica of an object version from one peer.
// ok=false means "this peer doesn't have it", distinct from a transport error.
type ReplicaFetcher interface {
	FetchReplica(ctx context.Context, v ObjectVersion) (data []byte, ok bool, err error)
}

// replicatedClient is the replicated-segment StorageClient: it asks every peer
// concurrently and returns the bytes from whichever one answers first with
// ok=true, matching distilled spec §8's "replication... fetch hidden behind one
// abstraction".
type replicatedClient struct {
	peers []ReplicaFetcher
}

// NewReplicatedStorageClient builds a StorageClient over a fixed peer set.
func NewReplicatedStorageClient(peers []ReplicaFetcher) StorageClient {
	return &replicatedClient{peers: peers}
}

func (c *replicatedClient) IsMetadata() bool { return false }

func (c *replicatedClient) Reconstruct(ctx context.Context, v ObjectVersion) ([]byte, error) {
	if len(c.peers) == 0 {
		return nil, errInsufficientFragments
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		data []byte
		ok   bool
		err  error
	}
	results := make(chan result, len(c.peers))
	var wg sync.WaitGroup
	for _, peer := range c.peers {
		peer := peer
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, ok, err := peer.FetchReplica(ctx, v)
			results <- result{data: data, ok: ok, err: err}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var lastErr error
	for r := range results {
		if r.err != nil {
			lastErr = r.err
			continue
		}
		if r.ok {
			// results is sized len(c.peers), so every other goroutine can still
			// send its result without blocking even though nobody reads it.
			cancel()
			return r.data, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errInsufficientFragments
}
