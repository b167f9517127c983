package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"household-meal-planner/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroqClient(url string) *GroqClient {
	c := NewGroqClient(&config.Config{GroqAPIKey: "test-key", GroqModel: "test-model"})
	c.endpoint = url
	return c
}

func TestGroqComplete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		var got groqRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{
				"choices": [{"message": {"content": "{\"days\": []}"}}],
				"usage": {"prompt_tokens": 12, "completion_tokens": 30, "total_tokens": 42}
			}`))
		}))
		defer srv.Close()

		resp, err := newTestGroqClient(srv.URL).Complete(context.Background(), Prompt{
			System:      "be terse",
			Text:        "plan please",
			SchemaHint:  "{schema}",
			Temperature: 0.4,
			MaxTokens:   900,
		})
		require.NoError(t, err)

		assert.Equal(t, `{"days": []}`, resp.Content)
		assert.Equal(t, 42, resp.Usage.TotalTokens)
		assert.Equal(t, "test-model", resp.Usage.Model)

		require.Len(t, got.Messages, 2)
		assert.Equal(t, "system", got.Messages[0].Role)
		assert.Equal(t, "plan please\n\n{schema}", got.Messages[1].Content)
		assert.Equal(t, 900, got.MaxTokens)
		assert.Equal(t, "json_object", got.ResponseFormat["type"])
	})

	t.Run("NonOKStatus", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("quota"))
		}))
		defer srv.Close()

		_, err := newTestGroqClient(srv.URL).Complete(context.Background(), Prompt{Text: "x"})
		require.Error(t, err)

		var svcErr *ServiceError
		require.True(t, errors.As(err, &svcErr))
		assert.Equal(t, "groq", svcErr.Provider)
		assert.Contains(t, err.Error(), "status=429")
	})

	t.Run("NoChoices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer srv.Close()

		_, err := newTestGroqClient(srv.URL).Complete(context.Background(), Prompt{Text: "x"})
		var svcErr *ServiceError
		assert.True(t, errors.As(err, &svcErr))
	})

	t.Run("Unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := newTestGroqClient(url).Complete(context.Background(), Prompt{Text: "x"})
		var svcErr *ServiceError
		assert.True(t, errors.As(err, &svcErr))
	})
}
