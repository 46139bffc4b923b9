package llm

// Usage contains token counts and timing information for a generated message.
type Usage struct {
	// Token counts
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`

	// Cache token counts (Anthropic prompt caching)
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`

	// Timing (provider-specific, but normalized to nanoseconds where possible)
	TotalDurationNs  int64 `json:"total_duration_ns,omitempty"`
	PromptDurationNs int64 `json:"prompt_duration_ns,omitempty"`
}

// Add accumulates counts from another usage record.
func (u *Usage) Add(other *Usage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
	u.TotalDurationNs += other.TotalDurationNs
	u.PromptDurationNs += other.PromptDurationNs
}
