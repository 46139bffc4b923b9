package graph

import (
	"github.com/papercomputeco/spool/pkg/llm"
)

// Transcript is the linearization of one context window: the exact ordered
// node sequence (oldest first) that was in context when the final node was
// generated. Entries may carry nested transcripts for embedded subagent
// conversations.
type Transcript struct {
	Entries []Entry `json:"entries"`
}

// Entry is one node of a transcript, with the nested subagent transcript
// attached when the export recursed into an embedded subgraph. Nested
// transcripts keep their own node identity space; they are never merged
// into the outer sequence.
type Entry struct {
	Node     *Node       `json:"node"`
	Subgraph *Transcript `json:"subgraph,omitempty"`
}

// Messages flattens the outer sequence into provider-facing messages.
// Nested subagent transcripts are not inlined; they belong to a different
// context window.
func (t *Transcript) Messages() []llm.Message {
	msgs := make([]llm.Message, len(t.Entries))
	for i, e := range t.Entries {
		msgs[i] = e.Node.Message()
	}
	return msgs
}

// Len returns the number of outer entries.
func (t *Transcript) Len() int {
	return len(t.Entries)
}

// Export reconstructs the generation context of a node: the walk backward
// along causal parent edges, returned oldest -> newest and ending in the
// node itself. The walk follows the edges recorded at generation time, not
// the current active path, so later forks never change the result of an
// export.
//
// Export is a pure read: it never mutates the store and, for a fixed store
// state, is deterministic and repeatable. Fails with NotFoundError for an
// unknown id and AmbiguousParentError if a node carries more than one
// causal parent (a bookkeeping bug, never produced by the View layer).
func (g *Graph) Export(id string) (*Transcript, error) {
	return g.export(id, nil)
}

// ExportRecursive is Export that additionally descends into embedded
// subagent conversations: whenever a node's metadata carries a subgraph
// handle the resolver knows, the nested conversation's own active
// root-to-leaf walk is exported and attached to the entry.
func (g *Graph) ExportRecursive(id string, resolver SubgraphResolver) (*Transcript, error) {
	return g.export(id, resolver)
}

func (g *Graph) export(id string, resolver SubgraphResolver) (*Transcript, error) {
	g.mu.RLock()

	if _, ok := g.nodes[id]; !ok {
		g.mu.RUnlock()
		return nil, NotFoundError{ID: id}
	}

	// Walk the causal chain newest -> oldest, then reverse.
	chain := []*Node{}
	seen := make(map[string]bool)
	cur := id
	for {
		if seen[cur] {
			g.mu.RUnlock()
			return nil, AmbiguousParentError{ID: cur, Parents: g.edges.parentsOf(cur)}
		}
		seen[cur] = true
		chain = append(chain, g.nodes[cur])

		parents := g.edges.parents[cur]
		switch len(parents) {
		case 0:
		case 1:
			cur = parents[0]
			continue
		default:
			g.mu.RUnlock()
			return nil, AmbiguousParentError{ID: cur, Parents: g.edges.parentsOf(cur)}
		}
		break
	}
	g.mu.RUnlock()

	t := &Transcript{Entries: make([]Entry, len(chain))}
	for i, node := range chain {
		entry := Entry{Node: node}

		if resolver != nil {
			if handle, ok := node.SubgraphHandle(); ok {
				sub, err := exportSubgraph(handle, resolver)
				if err != nil {
					return nil, err
				}
				entry.Subgraph = sub
			}
		}

		// chain is newest first; place oldest first.
		t.Entries[len(chain)-1-i] = entry
	}
	return t, nil
}

// exportSubgraph exports the nested conversation behind a handle: the
// subgraph's active path from its root to its frontier, recursing further
// if the nested conversation embeds subgraphs of its own. An unknown handle
// yields an empty transcript rather than an error; the owning node remains
// exportable even when the subagent store was not loaded.
func exportSubgraph(handle string, resolver SubgraphResolver) (*Transcript, error) {
	sg, ok := resolver.Subgraph(handle)
	if !ok || sg == nil {
		return &Transcript{}, nil
	}

	path := sg.ActivePath()
	if len(path) == 0 {
		return &Transcript{}, nil
	}

	return sg.ExportRecursive(path[len(path)-1], resolver)
}
