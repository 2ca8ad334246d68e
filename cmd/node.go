package cmd

import "github.com/google/uuid"

// NodeID identifies this synchronizer instance within the cluster. It has no
// semantics beyond logging, metric labels, and peer RPC targeting — membership
// and routing are delegated (see SPEC_FULL.md §1 non-goals).
type NodeID string

// NewNodeID generates a fresh node id, for first-boot configuration. Persisted
// node ids (internal/config) are loaded verbatim rather than regenerated.
func NewNodeID() NodeID {
	return NodeID(uuid.New().String())
}

func (n NodeID) String() string {
	return string(n)
}
