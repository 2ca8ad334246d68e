package cmd

import (
	"bytes"
	"context"
	"sync"

	"github.com/klauspost/reedsolomon"
)

// FragmentFetcher fetches one erasure-coded shard of an object version from the
// cluster. shardIndex is in [0, dataShards+parityShards). A missing/unreachable
// shard returns ok=false rather than an error, so the dispersed client can tell
// "this peer has nothing for this shard" apart from a harder failure.
type FragmentFetcher interface {
	FetchFragment(ctx context.Context, v ObjectVersion, shardIndex int) (data []byte, ok bool, err error)
}

// dispersedClient is the erasure-coded StorageClient: it fetches a quorum of
// shards concurrently and reconstructs the object with klauspost/reedsolomon,
// the same erasure-coding vocabulary (data fragments + tolerable faults) as
// cmd/erasure.go's defaultWQuorum/defaultParityCount.
type dispersedClient struct {
	dataShards   int
	parityShards int
	shardSize    int // bytes per shard of the largest object this segment stores; 0 means "unknown ahead of time"
	fetcher      FragmentFetcher
}

// NewDispersedStorageClient builds a StorageClient for a dispersed (erasure
// coded) segment with dataShards data fragments tolerating parityShards lost
// fragments.
func NewDispersedStorageClient(dataShards, parityShards int, fetcher FragmentFetcher) StorageClient {
	return &dispersedClient{dataShards: dataShards, parityShards: parityShards, fetcher: fetcher}
}

func (c *dispersedClient) IsMetadata() bool { return false }

func (c *dispersedClient) Reconstruct(ctx context.Context, v ObjectVersion) ([]byte, error) {
	total := c.dataShards + c.parityShards
	shards := make([][]byte, total)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fetchErr error
	)
	for i := 0; i < total; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, ok, err := c.fetcher.FetchFragment(ctx, v, i)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fetchErr = err
				return
			}
			if ok {
				shards[i] = data
			}
		}()
	}
	wg.Wait()
	if fetchErr != nil {
		return nil, fetchErr
	}

	present := 0
	size := 0
	for _, s := range shards {
		if s != nil {
			present++
			size = len(s)
		}
	}
	if present < c.dataShards {
		return nil, errInsufficientFragments
	}

	enc, err := reedsolomon.New(c.dataShards, c.parityShards)
	if err != nil {
		return nil, err
	}
	// Shards that weren't fetched must be nil (not zero-length) for
	// Reconstruct to treat them as missing and rebuild them.
	for _, s := range shards {
		if s != nil && len(s) != size {
			return nil, errInsufficientFragments
		}
	}
	if err := enc.Reconstruct(shards); err != nil {
		return nil, errInsufficientFragments
	}

	var buf bytes.Buffer
	if err := enc.Join(&buf, shards, size*c.dataShards); err != nil {
		return nil, errInsufficientFragments
	}
	return buf.Bytes(), nil
}
