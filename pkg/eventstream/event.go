// Package eventstream defines transport-neutral events emitted after graph
// writes are durably persisted, and the Publisher interface backends
// implement.
package eventstream

import (
	"time"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeNodePersisted is emitted after a conversation node and its
	// slot version are durably persisted.
	EventTypeNodePersisted = "spool.node.persisted"
)

// NodePersistedEvent is a transport-neutral event payload for a persisted
// conversation node. Consumers (trainers, indexers) use it to follow graph
// growth without replaying the store.
type NodePersistedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// SessionID identifies the owning session; GraphID is the session's
	// root graph or a subgraph handle.
	SessionID string `json:"session_id,omitempty"`
	GraphID   string `json:"graph_id"`

	// NodeID is the persisted node; Parent its causal parent, if any.
	NodeID string  `json:"node_id"`
	Parent *string `json:"parent,omitempty"`

	// SlotID is the conversation position the node was written to, and
	// Index its position on the active path at publish time.
	SlotID string `json:"slot_id,omitempty"`
	Index  int    `json:"index"`

	Role string `json:"role"`
}
