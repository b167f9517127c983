package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a completion request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for one engine step that talked to
// the completion service (or decided not to).
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}
