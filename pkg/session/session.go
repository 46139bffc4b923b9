// Package session scopes one conversation store to an explicit handle with
// a defined lifecycle: constructed at conversation start, durably logged on
// every write, closed at session end. It owns the root message graph, the
// registry of embedded subagent graphs, and the ambient plumbing (logger,
// record log, event publisher).
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/spool/pkg/eventstream"
	"github.com/papercomputeco/spool/pkg/graph"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/storage"
)

// Session is one live conversation. All methods are safe for concurrent
// use; writes are serialized by the underlying graph's per-slot optimistic
// versioning plus the session's own bookkeeping lock.
type Session struct {
	mu sync.Mutex

	id           string
	source       string
	model        string
	systemPrompt string

	startedAt time.Time
	endedAt   time.Time
	endReason string

	messageCount  int
	toolCallCount int
	usage         llm.Usage

	log *slog.Logger
	drv storage.Driver
	pub eventstream.Publisher

	root      *graph.Graph
	subgraphs map[string]*graph.Graph
}

// New creates a fresh session. With no options it stores records in memory,
// publishes nothing, and logs nowhere; see the With* options and Open for
// config-driven wiring.
func New(opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	s := &Session{
		id:           o.id,
		source:       o.source,
		model:        o.model,
		systemPrompt: o.systemPrompt,
		startedAt:    time.Now().UTC(),
		log:          o.log,
		drv:          o.drv,
		pub:          o.pub,
		subgraphs:    make(map[string]*graph.Graph),
	}
	s.root = graph.New(s.id, s.drv)

	s.log.Debug("session created", "session_id", s.id, "source", s.source)
	return s
}

// ID returns the session identifier, which is also the root graph's scope id.
func (s *Session) ID() string {
	return s.id
}

// Source returns which client or harness opened the session.
func (s *Session) Source() string {
	return s.source
}

// Model returns the model the session converses with.
func (s *Session) Model() string {
	return s.model
}

// SystemPrompt returns the session's recorded system prompt.
func (s *Session) SystemPrompt() string {
	return s.systemPrompt
}

// StartedAt returns the session start time.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Ended returns the end time and reason, zero values while the session is
// still live.
func (s *Session) Ended() (time.Time, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.endedAt, s.endReason
}

// Root returns the root conversation graph.
func (s *Session) Root() *graph.Graph {
	return s.root
}

// View returns the index-based view of the root conversation.
func (s *Session) View() *graph.View {
	return s.root.View()
}

// Append adds a message to the end of the active conversation, returning
// its position index. The write is durable before Append returns; a
// node-persisted event is published afterwards (publish failures are
// logged, never fatal to the write).
func (s *Session) Append(ctx context.Context, role string, content []llm.ContentBlock, metadata map[string]any) (int, error) {
	index, err := s.View().Append(ctx, role, content, metadata)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.messageCount++
	if role == llm.RoleTool {
		s.toolCallCount++
	}
	s.mu.Unlock()

	s.publishAt(ctx, index, role)
	return index, nil
}

// AppendText is Append for plain text content.
func (s *Session) AppendText(ctx context.Context, role, text string) (int, error) {
	return s.Append(ctx, role, llm.TextContent(text), nil)
}

// AppendToolResponse adds a tool-response message carrying an embedded
// subagent conversation. The subgraph handle becomes part of the node's
// content address, so the attachment is immutable from birth.
func (s *Session) AppendToolResponse(ctx context.Context, content []llm.ContentBlock, subgraphHandle string, metadata map[string]any) (int, error) {
	return s.Append(ctx, llm.RoleTool, content, graph.WithSubgraph(metadata, subgraphHandle))
}

// Edit replaces the content at a conversation position by forking the slot.
// Prior versions and everything generated from them stay reachable for
// export; only the active path changes. Returns the new node id.
func (s *Session) Edit(ctx context.Context, index int, content []llm.ContentBlock) (string, error) {
	id, err := s.View().Set(ctx, index, content)
	if err != nil {
		return "", err
	}

	s.publishAt(ctx, index, "")
	return id, nil
}

// EditText is Edit for plain text content.
func (s *Session) EditText(ctx context.Context, index int, text string) (string, error) {
	return s.Edit(ctx, index, llm.TextContent(text))
}

// NewSubgraph creates and registers an independent conversation graph for a
// subagent. It shares the session's record log under its own scope id (the
// returned handle) and never shares node identity with the root graph.
func (s *Session) NewSubgraph() (string, *graph.Graph) {
	handle := uuid.NewString()
	sg := graph.New(handle, s.drv)

	s.mu.Lock()
	s.subgraphs[handle] = sg
	s.mu.Unlock()

	s.log.Debug("subgraph created", "session_id", s.id, "handle", handle)
	return handle, sg
}

// Subgraph resolves a subgraph handle. It implements graph.SubgraphResolver.
func (s *Session) Subgraph(handle string) (*graph.Graph, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sg, ok := s.subgraphs[handle]
	return sg, ok
}

// Export linearizes the generation context of a node in the root graph.
// With recurse, embedded subagent conversations are included as nested
// transcripts.
func (s *Session) Export(id string, recurse bool) (*graph.Transcript, error) {
	if recurse {
		return s.root.ExportRecursive(id, s)
	}
	return s.root.Export(id)
}

// ExportActive linearizes the current active conversation (root to
// frontier). Returns an empty transcript for an empty conversation.
func (s *Session) ExportActive(recurse bool) (*graph.Transcript, error) {
	path := s.root.ActivePath()
	if len(path) == 0 {
		return &graph.Transcript{}, nil
	}
	return s.Export(path[len(path)-1], recurse)
}

// RecordUsage accumulates token accounting from a generation.
func (s *Session) RecordUsage(u *llm.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.usage.Add(u)
}

// Usage returns the accumulated token accounting.
func (s *Session) Usage() llm.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.usage
}

// Counts returns the message and tool-call counters.
func (s *Session) Counts() (messages, toolCalls int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.messageCount, s.toolCallCount
}

// End marks the session ended. The store remains readable; further writes
// are the caller's responsibility to stop.
func (s *Session) End(reason string) {
	s.mu.Lock()
	s.endedAt = time.Now().UTC()
	s.endReason = reason
	s.mu.Unlock()

	s.log.Info("session ended", "session_id", s.id, "reason", reason)
}

// Close releases the publisher and the record log.
func (s *Session) Close() error {
	pubErr := s.pub.Close()
	drvErr := s.drv.Close()
	if pubErr != nil {
		return pubErr
	}
	return drvErr
}

// publishAt emits a node-persisted event for the node currently at index on
// the active path. Publish failures are logged and swallowed; the event
// stream is advisory, the log is the source of truth.
func (s *Session) publishAt(ctx context.Context, index int, role string) {
	node, err := s.View().Get(index)
	if err != nil {
		return
	}
	if role == "" {
		role = node.Role
	}

	slotID, _ := s.root.SlotOf(node.ID)

	event := &eventstream.NodePersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeNodePersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     s.id,
		GraphID:       s.root.ID(),
		NodeID:        node.ID,
		Parent:        node.Parent,
		SlotID:        slotID,
		Index:         index,
		Role:          role,
	}

	if err := s.pub.PublishNode(ctx, event); err != nil {
		s.log.Warn("failed to publish node event", "session_id", s.id, "node_id", node.ID, "error", err)
	}
}

// Ensure Session implements graph.SubgraphResolver
var _ graph.SubgraphResolver = (*Session)(nil)
