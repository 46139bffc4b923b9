package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/papercomputeco/spool/pkg/llm"
)

// MetadataSubgraph is the metadata key under which a tool-response node
// stores the handle of its embedded subagent conversation. The handle is
// part of the node's content address, so the attachment exists from the
// node's creation and can never be added or removed afterwards.
const MetadataSubgraph = "spool.subgraph"

// Node is a single immutable message in a conversation graph.
//
// The ID is a content address: the hex-encoded SHA-256 of the causal parent
// id, role, content, and metadata. Two nodes with identical payloads and the
// same parent are the same node, which gives the store deduplication for
// free. Once created, no field ever changes; callers must treat returned
// nodes as read-only.
type Node struct {
	// ID is the content-addressed identifier (SHA-256, hex-encoded).
	ID string `json:"id"`

	// Parent is the causal parent recorded when the node was created.
	// Nil for root nodes. It participates in the content address, and
	// replay rejects any logged edge that contradicts it; the edge set
	// exports walk therefore mirrors this field.
	Parent *string `json:"parent,omitempty"`

	// Role is who produced this message ("system", "user", "assistant", "tool").
	Role string `json:"role"`

	// Content holds the message content blocks.
	Content []llm.ContentBlock `json:"content"`

	// Metadata carries out-of-band data such as usage accounting or an
	// embedded subgraph handle. It participates in the content address.
	Metadata map[string]any `json:"metadata,omitempty"`

	// Seq is the per-graph creation counter. Assigned by the graph at put
	// time and excluded from the content address.
	Seq int64 `json:"seq"`

	// CreatedAt is the wall-clock creation time. Excluded from the
	// content address.
	CreatedAt time.Time `json:"created_at"`
}

// Draft describes a node to be created by Graph.Put.
type Draft struct {
	// Role is required.
	Role string

	// Content is the message payload.
	Content []llm.ContentBlock

	// Metadata is optional. To embed a subagent conversation, set
	// MetadataSubgraph here; attachment after creation is impossible.
	Metadata map[string]any

	// Parent is the causal parent node id, or "" for a root node.
	Parent string
}

// computeID calculates the content address for a draft.
//
// The hash input is canonicalized by round-tripping through untyped JSON
// before hashing: encoding/json sorts map keys, so after the round trip the
// serialization no longer depends on whether a metadata value was a struct
// or the map it decodes back into. This keeps ids stable across a log
// replay, which re-hashes every node from its persisted form.
func computeID(d Draft) string {
	input, err := json.Marshal(struct {
		Parent   string             `json:"parent"`
		Role     string             `json:"role"`
		Content  []llm.ContentBlock `json:"content"`
		Metadata map[string]any     `json:"metadata,omitempty"`
	}{
		Parent:   d.Parent,
		Role:     d.Role,
		Content:  d.Content,
		Metadata: d.Metadata,
	})
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	var canonical any
	if err := json.Unmarshal(input, &canonical); err != nil {
		panic("failed to canonicalize hash input: " + err.Error())
	}
	input, err = json.Marshal(canonical)
	if err != nil {
		panic("failed to canonicalize hash input: " + err.Error())
	}

	h := sha256.Sum256(input)
	return hex.EncodeToString(h[:])
}

// cloneContent deep-copies content blocks through a JSON round trip so the
// stored node owns its payload outright; mutating the caller's slice after
// the fact cannot touch it. Nested maps (ToolInput) are copied too.
func cloneContent(blocks []llm.ContentBlock) []llm.ContentBlock {
	if blocks == nil {
		return nil
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		panic("failed to clone content: " + err.Error())
	}
	out := make([]llm.ContentBlock, 0, len(blocks))
	if err := json.Unmarshal(data, &out); err != nil {
		panic("failed to clone content: " + err.Error())
	}
	return out
}

// cloneMetadata deep-copies metadata through a JSON round trip. Values come
// back in their JSON-decoded forms (maps, float64), which is exactly what a
// replayed node carries, so a live node and its replayed twin agree.
func cloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		panic("failed to clone metadata: " + err.Error())
	}
	out := make(map[string]any, len(m))
	if err := json.Unmarshal(data, &out); err != nil {
		panic("failed to clone metadata: " + err.Error())
	}
	return out
}

// SubgraphHandle returns the embedded subgraph handle, if the node has one.
func (n *Node) SubgraphHandle() (string, bool) {
	if n.Metadata == nil {
		return "", false
	}
	handle, ok := n.Metadata[MetadataSubgraph].(string)
	return handle, ok && handle != ""
}

// Text returns the concatenated text content from the node's content blocks,
// including tool outputs.
func (n *Node) Text() string {
	var texts []string
	for _, block := range n.Content {
		switch {
		case block.Text != "":
			texts = append(texts, block.Text)
		case block.ToolOutput != "":
			texts = append(texts, block.ToolOutput)
		}
	}

	return strings.Join(texts, "\n")
}

// Message converts the node to a provider-facing llm.Message.
func (n *Node) Message() llm.Message {
	return llm.Message{Role: n.Role, Content: n.Content}
}
