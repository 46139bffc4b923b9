package graph

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/papercomputeco/spool/pkg/llm"
)

// View presents the graph as an ordinary indexable, editable message
// sequence. Index i is the i-th position along the active path; reads
// resolve to each slot's current version and writes always fork, so callers
// get familiar get/set/append semantics with no awareness of versioning.
//
// A View holds no state of its own and is safe to share; every operation
// re-resolves the active path.
type View struct {
	g *Graph
}

// View returns the index-based view of the graph.
func (g *Graph) View() *View {
	return &View{g: g}
}

// Len returns the number of messages on the active path.
func (v *View) Len() int {
	return len(v.g.ActivePath())
}

// Get returns the node at position index along the active path. Fails with
// NotFoundError if index is negative or beyond the current frontier.
func (v *View) Get(index int) (*Node, error) {
	path := v.g.ActivePath()
	if index < 0 || index >= len(path) {
		return nil, NotFoundError{ID: indexID(index)}
	}
	return v.g.Get(path[index])
}

// Set replaces the content at position index by forking: a new node is
// created with the supplied content (same role and metadata as the node it
// replaces), its causal parent is the active-path predecessor of index, and
// the slot at index is forked to the new node. Downstream slots keep their
// versions and their causal edges to the old node, so any export that
// referenced the old chain is unaffected; the active path simply ends at
// the new node until something is appended after it.
//
// Returns the new node's id. A concurrent edit of the same slot surfaces as
// ConflictError; the caller re-reads and retries.
func (v *View) Set(ctx context.Context, index int, content []llm.ContentBlock) (string, error) {
	v.g.mu.RLock()
	nodes, slotIDs := v.g.activePathLocked()
	v.g.mu.RUnlock()

	if index < 0 || index >= len(nodes) {
		return "", NotFoundError{ID: indexID(index)}
	}

	old, err := v.g.Get(nodes[index])
	if err != nil {
		return "", err
	}

	parent := ""
	if index > 0 {
		parent = nodes[index-1]
	}

	id, err := v.g.Put(ctx, Draft{
		Role:     old.Role,
		Content:  content,
		Metadata: old.Metadata,
		Parent:   parent,
	})
	if err != nil {
		return "", err
	}

	if parent != "" {
		if err := v.g.Connect(ctx, parent, id); err != nil {
			return "", err
		}
	}

	// Base the fork on the version this view observed; if the slot moved
	// underneath us the fork fails with ConflictError instead of silently
	// clobbering a concurrent edit.
	if err := v.g.ForkSlot(ctx, slotIDs[index], id, nodes[index]); err != nil {
		return "", err
	}
	return id, nil
}

// SetText is Set for plain text content.
func (v *View) SetText(ctx context.Context, index int, text string) (string, error) {
	return v.Set(ctx, index, llm.TextContent(text))
}

// Append adds a message after the current frontier: it creates a node whose
// causal parent is the frontier node, writes it into a fresh slot, and
// returns the new position index.
func (v *View) Append(ctx context.Context, role string, content []llm.ContentBlock, metadata map[string]any) (int, error) {
	v.g.mu.RLock()
	nodes, _ := v.g.activePathLocked()
	v.g.mu.RUnlock()

	parent := ""
	if len(nodes) > 0 {
		parent = nodes[len(nodes)-1]
	}

	id, err := v.g.Put(ctx, Draft{
		Role:     role,
		Content:  content,
		Metadata: metadata,
		Parent:   parent,
	})
	if err != nil {
		return 0, err
	}

	if parent != "" {
		if err := v.g.Connect(ctx, parent, id); err != nil {
			return 0, err
		}
	}

	if err := v.g.WriteSlot(ctx, uuid.NewString(), id, ""); err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// AppendText is Append for plain text content.
func (v *View) AppendText(ctx context.Context, role, text string) (int, error) {
	return v.Append(ctx, role, llm.TextContent(text), nil)
}

// Frontier returns the node id at the end of the active path, or "" for an
// empty conversation.
func (v *View) Frontier() string {
	path := v.g.ActivePath()
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// indexID renders a view index for NotFoundError.
func indexID(index int) string {
	return "index " + strconv.Itoa(index)
}
