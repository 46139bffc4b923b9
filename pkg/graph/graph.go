// Package graph implements a versioned message graph for agent
// conversations: an append-only store of immutable message nodes, per-slot
// version chains that make the conversation editable without ever mutating
// history, and a deterministic exporter that reconstructs the exact context
// window behind any generated message.
package graph

import (
	"context"
	"sync"
	"time"

	"github.com/papercomputeco/spool/pkg/storage"
)

// Graph is one conversation: an immutable node store, a causal edge set,
// and a slot manager holding the version chain of every conversation
// position. All mutations are durably appended to the backing log before
// they become visible; reads never block other reads.
//
// A Graph never shares node identity with another Graph. Subagent
// conversations are independent Graph instances referenced by handle from a
// tool-response node's metadata (see MetadataSubgraph).
type Graph struct {
	mu sync.RWMutex

	// id scopes this graph's records in a shared log.
	id string

	log storage.Driver

	nodes   map[string]*Node
	nodeSeq int64

	slots *slotManager
	edges *assembler
}

// New creates an empty graph whose mutations are logged to drv. The id
// scopes this graph's records; sessions use the session id for the root
// graph and the subgraph handle for embedded graphs.
func New(id string, drv storage.Driver) *Graph {
	return &Graph{
		id:    id,
		log:   drv,
		nodes: make(map[string]*Node),
		slots: newSlotManager(),
		edges: newAssembler(),
	}
}

// AttachLog points the graph at a record log. Graphs rebuilt by replay are
// constructed without one so that applying records cannot re-append them;
// the loader attaches the live log once replay completes.
func (g *Graph) AttachLog(drv storage.Driver) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.log = drv
}

// ID returns the graph's scope identifier.
func (g *Graph) ID() string {
	return g.id
}

// Len returns the number of nodes in the store.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.nodes)
}

// Put creates and durably stores a new immutable node, returning its
// content-addressed id. If an identical node already exists the existing id
// is returned and nothing is written. The draft's causal parent must
// already be in the store.
//
// Put does not insert the causal edge; callers that want the parent chain
// recorded (all of them, in practice) follow up with Connect, as the View
// layer does. The node is durable before Put returns, so a crash afterwards
// never loses a referenced node.
func (g *Graph) Put(ctx context.Context, d Draft) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if d.Parent != "" {
		if _, ok := g.nodes[d.Parent]; !ok {
			return "", NotFoundError{ID: d.Parent}
		}
	}

	id := computeID(d)
	if _, ok := g.nodes[id]; ok {
		// Identical payload with the same parent: content addressing
		// collapses it onto the existing node.
		return id, nil
	}

	// The node owns private copies of the payload; a caller mutating the
	// draft's slices after Put returns cannot rewrite stored content out
	// from under its content address.
	node := &Node{
		ID:        id,
		Role:      d.Role,
		Content:   cloneContent(d.Content),
		Metadata:  cloneMetadata(d.Metadata),
		CreatedAt: time.Now().UTC(),
	}
	var recParent *string
	if d.Parent != "" {
		parent := d.Parent
		node.Parent = &parent
		recCopy := d.Parent
		recParent = &recCopy
	}

	// The record gets its own copies too; the in-memory driver keeps
	// appended records live, and they must not share state with the node.
	rec := &storage.Record{
		GraphID: g.id,
		Kind:    storage.KindNodeCreated,
		Node: &storage.NodeRecord{
			ID:        node.ID,
			Parent:    recParent,
			Role:      node.Role,
			Content:   cloneContent(node.Content),
			Metadata:  cloneMetadata(node.Metadata),
			CreatedAt: node.CreatedAt,
		},
	}
	if err := g.log.Append(ctx, rec); err != nil {
		return "", err
	}

	g.nodeSeq++
	node.Seq = g.nodeSeq
	g.nodes[id] = node
	return id, nil
}

// Get retrieves a node by id. The returned node is shared and must be
// treated as read-only.
func (g *Graph) Get(id string) (*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, ok := g.nodes[id]
	if !ok {
		return nil, NotFoundError{ID: id}
	}
	return node, nil
}

// Has reports whether a node exists.
func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

// Connect durably inserts a causal parent -> child edge. Both endpoints
// must exist. An edge that would close a cycle fails with CycleError and
// leaves the graph unchanged; duplicate edges are a no-op and are not
// re-logged.
func (g *Graph) Connect(ctx context.Context, parent, child string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.connectLocked(ctx, parent, child)
}

func (g *Graph) connectLocked(ctx context.Context, parent, child string) error {
	if _, ok := g.nodes[parent]; !ok {
		return NotFoundError{ID: parent}
	}
	if _, ok := g.nodes[child]; !ok {
		return NotFoundError{ID: child}
	}

	for _, c := range g.edges.childrenOf(parent) {
		if c == child {
			return nil
		}
	}

	if parent == child || g.edges.reachable(child, parent) {
		return CycleError{Parent: parent, Child: child}
	}

	rec := &storage.Record{
		GraphID: g.id,
		Kind:    storage.KindEdgeAdded,
		Edge:    &storage.EdgeRecord{Parent: parent, Child: child},
	}
	if err := g.log.Append(ctx, rec); err != nil {
		return err
	}

	// connect cannot fail here: the cycle check above ran under the same
	// lock that guards all edge writes.
	return g.edges.connect(parent, child)
}

// Children returns the node's child set.
func (g *Graph) Children(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, NotFoundError{ID: id}
	}
	return g.edges.childrenOf(id), nil
}

// Parents returns the node's causal parent set.
func (g *Graph) Parents(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, NotFoundError{ID: id}
	}
	return g.edges.parentsOf(id), nil
}

// WriteSlot durably appends nodeID as the new active version of slotID,
// creating the slot on first write. base is the caller's last-observed
// current version ("" for a new slot); a stale base fails with
// ConflictError.
func (g *Graph) WriteSlot(ctx context.Context, slotID, nodeID, base string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.writeSlotLocked(ctx, slotID, nodeID, base)
}

// ForkSlot is WriteSlot under its branch-creating name: it never overwrites
// or detaches an existing version, it only adds a sibling and moves the
// active pointer.
func (g *Graph) ForkSlot(ctx context.Context, slotID, nodeID, base string) error {
	return g.WriteSlot(ctx, slotID, nodeID, base)
}

func (g *Graph) writeSlotLocked(ctx context.Context, slotID, nodeID, base string) error {
	if _, ok := g.nodes[nodeID]; !ok {
		return NotFoundError{ID: nodeID}
	}

	// Validate against the slot state before logging so a rejected write
	// leaves no record behind.
	if err := g.slots.check(slotID, nodeID, base); err != nil {
		return err
	}

	rec := &storage.Record{
		GraphID: g.id,
		Kind:    storage.KindSlotVersionSet,
		Slot:    &storage.SlotRecord{SlotID: slotID, NodeID: nodeID},
	}
	if err := g.log.Append(ctx, rec); err != nil {
		return err
	}

	return g.slots.write(slotID, nodeID, base)
}

// CurrentVersion returns the active version of a slot.
func (g *Graph) CurrentVersion(slotID string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.slots.current(slotID)
}

// SlotHistory returns every version ever written to a slot, in write order.
func (g *Graph) SlotHistory(slotID string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.slots.history(slotID)
}

// SlotOf returns the slot a node is a version of.
func (g *Graph) SlotOf(nodeID string) (string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	slotID, ok := g.slots.slotOf(nodeID)
	if !ok {
		return "", NotFoundError{ID: nodeID}
	}
	return slotID, nil
}

// ActivePath returns the current root-to-frontier walk as node ids. It is
// recomputed on every call: starting from the root slot's active version,
// the walk follows the edge to whichever child is the active version of its
// own slot, preferring the most recently written slot when several qualify,
// and stops when no active child remains.
func (g *Graph) ActivePath() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes, _ := g.activePathLocked()
	return nodes
}

// activePathLocked returns the active path node ids and the parallel slice
// of slot ids. Callers hold at least a read lock.
func (g *Graph) activePathLocked() ([]string, []string) {
	rootSlot := g.slots.root()
	if rootSlot == "" {
		return nil, nil
	}

	cur, err := g.slots.current(rootSlot)
	if err != nil {
		return nil, nil
	}

	nodes := []string{cur}
	slotIDs := []string{rootSlot}

	for {
		var (
			next     string
			nextSlot string
			bestSeq  int64 = -1
		)
		for _, child := range g.edges.children[cur] {
			slotID, ok := g.slots.slotOf(child)
			if !ok {
				continue
			}
			s := g.slots.slots[slotID]
			if s.current() != child {
				continue
			}
			if s.lastWrite > bestSeq {
				next, nextSlot, bestSeq = child, slotID, s.lastWrite
			}
		}
		if next == "" {
			return nodes, slotIDs
		}
		nodes = append(nodes, next)
		slotIDs = append(slotIDs, nextSlot)
		cur = next
	}
}
