package llm

import (
	"context"
	"fmt"

	"household-meal-planner/internal/config"
)

// NewCompleter builds the client for cfg.CompletionProvider. It returns a
// nil Completer for config.ProviderNone; callers then plan from the local
// catalog only. Close the result when it implements Closer.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch cfg.CompletionProvider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGroq:
		return NewGroqClient(cfg), nil
	case config.ProviderNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}
