package llm

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"household-meal-planner/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hits the live Gemini API; runs only when GEMINI_API_KEY is set.
func TestGeminiCompleteLive(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping live test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
	}
	client, err := NewGeminiClient(ctx, &config.Config{GeminiAPIKey: apiKey, GeminiModel: model})
	require.NoError(t, err, "failed to create client")
	defer client.Close()

	resp, err := client.Complete(ctx, Prompt{
		System:      "Return only the exact JSON structure requested, no explanatory text.",
		Text:        `Return {"ok": true}.`,
		Temperature: 0,
		MaxTokens:   50,
	})
	require.NoError(t, err)

	var out map[string]any
	assert.NoError(t, json.Unmarshal([]byte(resp.Content), &out), "expected JSON content, got %q", resp.Content)
}
