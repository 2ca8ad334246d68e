package cmd

import (
	"context"
	"errors"
	"testing"
)

type fakeReplicaFetcher struct {
	data []byte
	ok   bool
	err  error
}

func (f fakeReplicaFetcher) FetchReplica(ctx context.Context, v ObjectVersion) ([]byte, bool, error) {
	return f.data, f.ok, f.err
}

func TestReplicatedClientReturnsFirstAvailableReplica(t *testing.T) {
	peers := []ReplicaFetcher{
		fakeReplicaFetcher{ok: false},
		fakeReplicaFetcher{data: []byte("replica"), ok: true},
		fakeReplicaFetcher{ok: false},
	}
	client := NewReplicatedStorageClient(peers)

	got, err := client.Reconstruct(context.Background(), 1)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if string(got) != "replica" {
		t.Fatalf("want %q, got %q", "replica", got)
	}
}

func TestReplicatedClientNoPeerHasIt(t *testing.T) {
	peers := []ReplicaFetcher{
		fakeReplicaFetcher{ok: false},
		fakeReplicaFetcher{ok: false},
	}
	client := NewReplicatedStorageClient(peers)

	_, err := client.Reconstruct(context.Background(), 1)
	if err != errInsufficientFragments {
		t.Fatalf("want errInsufficientFragments, got %v", err)
	}
}

func TestReplicatedClientAllErrorsPropagates(t *testing.T) {
	boom := errors.New("boom")
	peers := []ReplicaFetcher{
		fakeReplicaFetcher{err: boom},
		fakeReplicaFetcher{err: boom},
	}
	client := NewReplicatedStorageClient(peers)

	_, err := client.Reconstruct(context.Background(), 1)
	if err != boom {
		t.Fatalf("want the peer error surfaced, got %v", err)
	}
}

func TestReplicatedClientNoPeersConfigured(t *testing.T) {
	client := NewReplicatedStorageClient(nil)
	_, err := client.Reconstruct(context.Background(), 1)
	if err != errInsufficientFragments {
		t.Fatalf("want errInsufficientFragments, got %v", err)
	}
}
