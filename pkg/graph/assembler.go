package graph

// assembler maintains the causal edge set of one graph. Edges are directed
// parent -> child, meaning the child was generated with the parent in its
// context. The owning Graph serializes access.
type assembler struct {
	children map[string][]string
	parents  map[string][]string
}

func newAssembler() *assembler {
	return &assembler{
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// connect inserts a parent -> child edge after verifying it keeps the graph
// acyclic. Duplicate edges are a no-op. On CycleError the edge set is
// unchanged.
func (a *assembler) connect(parent, child string) error {
	for _, c := range a.children[parent] {
		if c == child {
			return nil
		}
	}

	// The new edge closes a cycle exactly when the parent is already
	// reachable from the child along existing edges.
	if parent == child || a.reachable(child, parent) {
		return CycleError{Parent: parent, Child: child}
	}

	a.children[parent] = append(a.children[parent], child)
	a.parents[child] = append(a.parents[child], parent)
	return nil
}

// reachable reports whether to can be reached from from by following
// children edges. Iterative DFS; the graph is acyclic so no visit bound is
// needed beyond the visited set.
func (a *assembler) reachable(from, to string) bool {
	visited := make(map[string]bool)
	stack := []string{from}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur == to {
			return true
		}
		if visited[cur] {
			continue
		}
		visited[cur] = true

		stack = append(stack, a.children[cur]...)
	}
	return false
}

// childrenOf returns a copy of the node's child set in insertion order.
func (a *assembler) childrenOf(id string) []string {
	edges := a.children[id]
	out := make([]string, len(edges))
	copy(out, edges)
	return out
}

// parentsOf returns a copy of the node's parent set in insertion order.
func (a *assembler) parentsOf(id string) []string {
	edges := a.parents[id]
	out := make([]string, len(edges))
	copy(out, edges)
	return out
}
