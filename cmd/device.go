package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// Device is the local log-structured storage handle consumed by GQ, RQ, and
// SGC (SPEC_FULL.md §8). All operations are fallible per call; callers treat a
// returned error as transient I/O (§9) unless stated otherwise.
//
// This mirrors cmd/erasure.go's StorageAPI/getDisks() role — "the thing that
// holds bytes for a version" — generalized from MinIO's multi-disk erasure set
// down to the single local device this spec's storage-client/device split
// assumes (fragment encoding is the storage client's job, not the device's).
type Device interface {
	Has(ctx context.Context, v ObjectVersion) (bool, error)
	Put(ctx context.Context, v ObjectVersion, data []byte) error
	// Get returns the stored bytes for v, used to answer peer fetches
	// (cmd/rpc_server.go); not consumed by GQ/RQ/SGC themselves.
	Get(ctx context.Context, v ObjectVersion) ([]byte, error)
	Delete(ctx context.Context, v ObjectVersion) error
	// List returns the device's stored versions in ascending order. SGC relies
	// on this ordering to make its scan resumable in bounded steps.
	List(ctx context.Context) ([]ObjectVersion, error)
}

// localDevice is a directory-of-one-file-per-version Device, with an LRU cache
// of recent Has() probes so a burst of Putted events (each triggering a GQ
// existence probe) doesn't all stat the filesystem when the answer hasn't
// changed since the last probe. The cache is a pure read-through optimization:
// Put/Delete always update it, so it can never observe stale data.
type localDevice struct {
	root string

	mu        sync.Mutex
	existsLRU *lru.Cache // ObjectVersion -> bool
}

// NewLocalDevice creates (if needed) root and returns a Device backed by it.
func NewLocalDevice(root string, cacheSize int) (Device, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("frugalos: create device root: %w", err)
	}
	if cacheSize <= 0 {
		cacheSize = 4096
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("frugalos: create device existence cache: %w", err)
	}
	return &localDevice{root: root, existsLRU: cache}, nil
}

func (d *localDevice) path(v ObjectVersion) string {
	return filepath.Join(d.root, strconv.FormatUint(uint64(v), 10))
}

func (d *localDevice) Has(ctx context.Context, v ObjectVersion) (bool, error) {
	if cached, ok := d.existsLRU.Get(v); ok {
		return cached.(bool), nil
	}
	_, err := os.Stat(d.path(v))
	switch {
	case err == nil:
		d.existsLRU.Add(v, true)
		return true, nil
	case os.IsNotExist(err):
		d.existsLRU.Add(v, false)
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", errDeviceIO, err)
	}
}

func (d *localDevice) Get(ctx context.Context, v ObjectVersion) ([]byte, error) {
	data, err := os.ReadFile(d.path(v))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDeviceIO, err)
	}
	return data, nil
}

func (d *localDevice) Put(ctx context.Context, v ObjectVersion, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tmp := d.path(v) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", errDeviceIO, err)
	}
	if err := os.Rename(tmp, d.path(v)); err != nil {
		return fmt.Errorf("%w: %v", errDeviceIO, err)
	}
	d.existsLRU.Add(v, true)
	return nil
}

func (d *localDevice) Delete(ctx context.Context, v ObjectVersion) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := os.Remove(d.path(v))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", errDeviceIO, err)
	}
	d.existsLRU.Add(v, false)
	return nil
}

func (d *localDevice) List(ctx context.Context) ([]ObjectVersion, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDeviceIO, err)
	}
	versions := make([]ObjectVersion, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		n, err := strconv.ParseUint(e.Name(), 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, ObjectVersion(n))
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}
