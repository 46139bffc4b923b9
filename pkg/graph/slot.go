package graph

import "errors"

// ErrNodeSlotBound indicates an attempt to write a node id into a second
// slot. A node version belongs to exactly one conversation position.
var ErrNodeSlotBound = errors.New("node already bound to another slot")

// slot is a logical conversation position. It accumulates every version
// ever written to that position and points at the currently active one.
// Slots are created on first write and never destroyed.
type slot struct {
	id string

	// versions holds node ids in write order.
	versions []string

	// active indexes into versions.
	active int

	// lastWrite is the graph-wide write counter value of the most recent
	// write to this slot, used to break ties in the active path walk.
	lastWrite int64
}

func (s *slot) current() string {
	return s.versions[s.active]
}

// slotManager tracks all slots of one graph. It is not safe for concurrent
// use on its own; the owning Graph serializes access.
type slotManager struct {
	slots map[string]*slot

	// order records slot creation order; order[0] is the root slot.
	order []string

	// nodeSlot maps a node id to the slot it is a version of.
	nodeSlot map[string]string

	// writeSeq counts slot writes across the graph.
	writeSeq int64
}

func newSlotManager() *slotManager {
	return &slotManager{
		slots:    make(map[string]*slot),
		nodeSlot: make(map[string]string),
	}
}

// check validates a prospective write without applying it, so the owning
// graph can refuse to log a doomed record.
func (m *slotManager) check(slotID, nodeID, base string) error {
	if bound, ok := m.nodeSlot[nodeID]; ok && bound != slotID {
		return ErrNodeSlotBound
	}

	s, ok := m.slots[slotID]
	if !ok {
		if base != "" {
			return ConflictError{SlotID: slotID, Base: base, Current: ""}
		}
		return nil
	}
	if cur := s.current(); cur != base {
		return ConflictError{SlotID: slotID, Base: base, Current: cur}
	}
	return nil
}

// write appends nodeID as the new active version of slotID, creating the
// slot if this is its first write. base must be the caller's last-observed
// current version ("" for a never-written slot); a stale base fails with
// ConflictError and changes nothing.
//
// Writing an id that is already a version of the slot re-activates it
// instead of duplicating the history entry (content addressing makes
// identical re-edits collapse to the same id).
func (m *slotManager) write(slotID, nodeID, base string) error {
	if bound, ok := m.nodeSlot[nodeID]; ok && bound != slotID {
		return ErrNodeSlotBound
	}

	s, ok := m.slots[slotID]
	if !ok {
		if base != "" {
			return ConflictError{SlotID: slotID, Base: base, Current: ""}
		}
		s = &slot{id: slotID}
		m.slots[slotID] = s
		m.order = append(m.order, slotID)
	} else if cur := s.current(); cur != base {
		return ConflictError{SlotID: slotID, Base: base, Current: cur}
	}

	existing := -1
	for i, v := range s.versions {
		if v == nodeID {
			existing = i
			break
		}
	}
	if existing >= 0 {
		s.active = existing
	} else {
		s.versions = append(s.versions, nodeID)
		s.active = len(s.versions) - 1
	}

	m.writeSeq++
	s.lastWrite = m.writeSeq
	m.nodeSlot[nodeID] = slotID
	return nil
}

// current returns the active version of a slot.
func (m *slotManager) current(slotID string) (string, error) {
	s, ok := m.slots[slotID]
	if !ok {
		return "", NotFoundError{ID: slotID}
	}
	return s.current(), nil
}

// history returns all versions of a slot in write order.
func (m *slotManager) history(slotID string) ([]string, error) {
	s, ok := m.slots[slotID]
	if !ok {
		return nil, NotFoundError{ID: slotID}
	}
	out := make([]string, len(s.versions))
	copy(out, s.versions)
	return out, nil
}

// slotOf returns the slot id a node is a version of.
func (m *slotManager) slotOf(nodeID string) (string, bool) {
	id, ok := m.nodeSlot[nodeID]
	return id, ok
}

// root returns the first slot ever created, or "" if none exists.
func (m *slotManager) root() string {
	if len(m.order) == 0 {
		return ""
	}
	return m.order[0]
}
