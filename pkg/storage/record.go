package storage

import (
	"time"

	"github.com/papercomputeco/spool/pkg/llm"
)

// Kind discriminates the record variants in the log.
type Kind string

const (
	// KindNodeCreated records an immutable node entering the store.
	KindNodeCreated Kind = "node_created"

	// KindEdgeAdded records a causal parent -> child edge.
	KindEdgeAdded Kind = "edge_added"

	// KindSlotVersionSet records a slot gaining a new active version.
	KindSlotVersionSet Kind = "slot_version_set"
)

// Record is a single entry in the append-only log. Exactly one of Node,
// Edge, or Slot is set, matching Kind.
type Record struct {
	// Seq is the log sequence number, assigned by the driver on Append.
	Seq int64 `json:"seq"`

	// GraphID scopes the record to one graph. Subgraphs of the same
	// session share a log but never a GraphID.
	GraphID string `json:"graph_id"`

	Kind Kind `json:"kind"`

	Node *NodeRecord `json:"node,omitempty"`
	Edge *EdgeRecord `json:"edge,omitempty"`
	Slot *SlotRecord `json:"slot,omitempty"`
}

// NodeRecord is the persisted form of a graph node.
type NodeRecord struct {
	ID        string             `json:"id"`
	Parent    *string            `json:"parent,omitempty"`
	Role      string             `json:"role"`
	Content   []llm.ContentBlock `json:"content"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// EdgeRecord is the persisted form of a causal edge.
type EdgeRecord struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// SlotRecord is the persisted form of a slot version change. Replaying it
// appends NodeID to the slot's version set and marks it active.
type SlotRecord struct {
	SlotID string `json:"slot_id"`
	NodeID string `json:"node_id"`
}
