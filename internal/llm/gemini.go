package llm

import (
	"context"
	"fmt"

	"household-meal-planner/internal/config"
	"household-meal-planner/internal/shared"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiProvider = "gemini"

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, modelName: cfg.GeminiModel}, nil
}

// Complete sends the prompt to the Gemini model and returns the generated text.
func (c *GeminiClient) Complete(ctx context.Context, prompt Prompt) (ContentResponse, error) {
	// Settings are per request, so each call gets its own model handle.
	model := c.client.GenerativeModel(c.modelName)
	if prompt.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}
	model.SetTemperature(prompt.Temperature)
	if prompt.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(prompt.MaxTokens))
	}
	model.ResponseMIMEType = "application/json"

	text := prompt.Text
	if prompt.SchemaHint != "" {
		text += "\n\n" + prompt.SchemaHint
	}

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return ContentResponse{}, serviceError(geminiProvider, "failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ContentResponse{}, serviceError(geminiProvider, "no content generated")
	}

	out, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return ContentResponse{}, serviceError(geminiProvider, "generated content is not text")
	}

	usage := shared.TokenUsage{Model: c.modelName}
	if resp.UsageMetadata != nil {
		usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return ContentResponse{Content: string(out), Usage: usage}, nil
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}
