package graph

import (
	"github.com/papercomputeco/spool/pkg/storage"
)

// Apply replays a single log record into the graph without re-logging it.
// Records must arrive in their original append order. Every reference is
// validated against already-replayed state; the first invalid reference
// fails closed with storage.CorruptError so a damaged log never yields a
// partial graph.
func (g *Graph) Apply(rec *storage.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec == nil {
		return storage.CorruptError{Reason: "nil record"}
	}
	if rec.GraphID != g.id {
		return storage.CorruptError{Seq: rec.Seq, Reason: "record for graph " + rec.GraphID + " applied to graph " + g.id}
	}

	switch rec.Kind {
	case storage.KindNodeCreated:
		return g.applyNode(rec)
	case storage.KindEdgeAdded:
		return g.applyEdge(rec)
	case storage.KindSlotVersionSet:
		return g.applySlot(rec)
	default:
		return storage.CorruptError{Seq: rec.Seq, Reason: "unknown record kind " + string(rec.Kind)}
	}
}

func (g *Graph) applyNode(rec *storage.Record) error {
	nr := rec.Node
	if nr == nil {
		return storage.CorruptError{Seq: rec.Seq, Reason: "node_created record without node payload"}
	}

	// A node id must always match the payload it addresses; this catches
	// both tampered payloads and ids recreated with different content.
	want := computeID(Draft{
		Role:     nr.Role,
		Content:  nr.Content,
		Metadata: nr.Metadata,
		Parent:   parentOrEmpty(nr.Parent),
	})
	if want != nr.ID {
		return storage.CorruptError{
			Seq:    rec.Seq,
			Reason: "node " + short(nr.ID) + " does not match its content address",
			Err:    ImmutabilityError{ID: nr.ID},
		}
	}

	if _, ok := g.nodes[nr.ID]; ok {
		return nil
	}

	if nr.Parent != nil {
		if _, ok := g.nodes[*nr.Parent]; !ok {
			return storage.CorruptError{Seq: rec.Seq, Reason: "node " + short(nr.ID) + " references unknown parent " + short(*nr.Parent)}
		}
	}

	var parent *string
	if nr.Parent != nil {
		p := *nr.Parent
		parent = &p
	}

	g.nodeSeq++
	// Clone the payload: the in-memory driver hands out records that alias
	// its own log, and the live node must not share mutable state with it.
	g.nodes[nr.ID] = &Node{
		ID:        nr.ID,
		Parent:    parent,
		Role:      nr.Role,
		Content:   cloneContent(nr.Content),
		Metadata:  cloneMetadata(nr.Metadata),
		Seq:       g.nodeSeq,
		CreatedAt: nr.CreatedAt,
	}
	return nil
}

func (g *Graph) applyEdge(rec *storage.Record) error {
	er := rec.Edge
	if er == nil {
		return storage.CorruptError{Seq: rec.Seq, Reason: "edge_added record without edge payload"}
	}
	if _, ok := g.nodes[er.Parent]; !ok {
		return storage.CorruptError{Seq: rec.Seq, Reason: "edge references unknown parent " + short(er.Parent)}
	}
	child, ok := g.nodes[er.Child]
	if !ok {
		return storage.CorruptError{Seq: rec.Seq, Reason: "edge references unknown child " + short(er.Child)}
	}

	// The edge set must agree with the causal parent each node recorded at
	// creation; a contradictory edge means the log was not written by this
	// store.
	if child.Parent == nil || *child.Parent != er.Parent {
		return storage.CorruptError{Seq: rec.Seq, Reason: "edge " + short(er.Parent) + " -> " + short(er.Child) + " contradicts the child's recorded parent"}
	}

	if err := g.edges.connect(er.Parent, er.Child); err != nil {
		return storage.CorruptError{Seq: rec.Seq, Reason: err.Error()}
	}
	return nil
}

func (g *Graph) applySlot(rec *storage.Record) error {
	sr := rec.Slot
	if sr == nil {
		return storage.CorruptError{Seq: rec.Seq, Reason: "slot_version_set record without slot payload"}
	}
	if _, ok := g.nodes[sr.NodeID]; !ok {
		return storage.CorruptError{Seq: rec.Seq, Reason: "slot " + sr.SlotID + " references unknown node " + short(sr.NodeID)}
	}

	// Replay bypasses optimistic concurrency: the log already serialized
	// the writes, so each record's base is whatever the slot holds now.
	base := ""
	if s, ok := g.slots.slots[sr.SlotID]; ok {
		base = s.current()
	}
	if err := g.slots.write(sr.SlotID, sr.NodeID, base); err != nil {
		return storage.CorruptError{Seq: rec.Seq, Reason: err.Error()}
	}
	return nil
}

func parentOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
