package graph

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a node id, slot id, or view index does not
// exist in the graph.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "not found"
	}
	return "not found: " + e.ID
}

// ConflictError is returned when a slot write is based on a stale version.
// The caller must re-read the slot's current version and retry or fork from
// the new current.
type ConflictError struct {
	SlotID string

	// Base is the version the caller last observed.
	Base string

	// Current is the version the slot holds now.
	Current string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("slot %s advanced from %s to %s", e.SlotID, short(e.Base), short(e.Current))
}

// CycleError is returned when an edge insertion would make the graph cyclic.
// The graph is left unchanged.
type CycleError struct {
	Parent string
	Child  string
}

func (e CycleError) Error() string {
	return fmt.Sprintf("edge %s -> %s would create a cycle", short(e.Parent), short(e.Child))
}

// ImmutabilityError reports a node id whose payload no longer re-derives to
// it: an existing node identity was rebound to different content. It is
// fatal for the store; replay surfaces it as the cause of a
// storage.CorruptError.
type ImmutabilityError struct {
	ID string
}

func (e ImmutabilityError) Error() string {
	return "node is immutable: " + short(e.ID)
}

// AmbiguousParentError reports a node with more than one causal parent.
// Correctly written edges never produce this; it indicates a bug in edge
// bookkeeping.
type AmbiguousParentError struct {
	ID      string
	Parents []string
}

func (e AmbiguousParentError) Error() string {
	shorts := make([]string, len(e.Parents))
	for i, p := range e.Parents {
		shorts[i] = short(p)
	}
	return fmt.Sprintf("node %s has %d causal parents (%s)", short(e.ID), len(e.Parents), strings.Join(shorts, ", "))
}

// short abbreviates a node id for error messages. Content-addressed ids are
// 64 hex characters; the first 12 are plenty to identify a node in logs.
func short(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
