package llm

import (
	"context"
	"fmt"

	"household-meal-planner/internal/shared"
)

// Prompt is a compiled request for the completion service.
type Prompt struct {
	System      string
	Text        string
	SchemaHint  string
	Temperature float32
	MaxTokens   int
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// Completer sends a prompt to a generative text service and returns its raw output.
// Implementations do not retry; any failure is reported as a *ServiceError.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// ServiceError reports that the completion service could not produce output.
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func serviceError(provider string, format string, args ...any) error {
	return &ServiceError{Provider: provider, Err: fmt.Errorf(format, args...)}
}
