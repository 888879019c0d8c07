package ctxengine

// TokenBudget tracks token allocation across prompt sections for one
// assembly. HistoryBudget is never negative and HistoryTokensUsed never
// exceeds it.
type TokenBudget struct {
	ContextWindowTokens  int `json:"context_window_tokens"`
	SystemPromptTokens   int `json:"system_prompt_tokens"`
	CurrentMessageTokens int `json:"current_message_tokens"`
	MemoryTokens         int `json:"memory_tokens"`
	HistoryBudget        int `json:"history_budget"`
	HistoryTokensUsed    int `json:"history_tokens_used"`
}

// Fixed returns the tokens consumed by everything except history.
func (b TokenBudget) Fixed() int {
	return b.SystemPromptTokens + b.CurrentMessageTokens + b.MemoryTokens
}

// Used returns the total number of tokens consumed across all sections.
func (b TokenBudget) Used() int {
	return b.Fixed() + b.HistoryTokensUsed
}

// Available returns the number of tokens left in the window.
// Returns 0 if the window is already exceeded.
func (b TokenBudget) Available() int {
	return max(0, b.ContextWindowTokens-b.Used())
}

// Exceeded reports whether the fixed sections alone overflow the window.
func (b TokenBudget) Exceeded() bool {
	return b.Fixed() > b.ContextWindowTokens
}

// ComputeBudget measures the fixed prompt sections and derives the history
// budget. memoryBlock is the fully rendered memory archive, or "" when there
// are no memories.
func ComputeBudget(estimator TokenEstimator, contextWindowTokens int, systemPrompt, currentMessage, memoryBlock string) TokenBudget {
	b := TokenBudget{
		ContextWindowTokens:  contextWindowTokens,
		SystemPromptTokens:   estimator.Estimate(systemPrompt),
		CurrentMessageTokens: estimator.Estimate(currentMessage),
	}
	if memoryBlock != "" {
		b.MemoryTokens = estimator.Estimate(memoryBlock)
	}
	b.HistoryBudget = max(0, contextWindowTokens-b.Fixed())
	return b
}
