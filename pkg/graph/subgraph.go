package graph

// SubgraphResolver resolves an opaque subgraph handle to the independent
// graph instance it names. Handles cross the graph boundary only as strings
// inside node metadata; the resolver is how an exporter turns them back
// into graphs. Sessions implement this over their subgraph registry.
type SubgraphResolver interface {
	Subgraph(handle string) (*Graph, bool)
}

// WithSubgraph returns a copy of metadata with the subgraph handle set.
// Pass the result to Put (or View.Append) when creating the tool-response
// node; nodes are immutable, so the attachment has to ride along in the
// single creating call.
func WithSubgraph(metadata map[string]any, handle string) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out[MetadataSubgraph] = handle
	return out
}
