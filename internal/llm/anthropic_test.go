package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAnthropicLLMGenerate(t *testing.T) {
	t.Run("successful generation", func(t *testing.T) {
		var gotRequest anthropicRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "key-1", r.Header.Get("x-api-key"))
			assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))

			json.NewEncoder(w).Encode(map[string]any{
				"content": []map[string]any{{"type": "text", "text": "claude answer"}},
			})
		}))
		defer server.Close()

		m := NewAnthropicLLM("key-1", "claude-3-haiku-20240307", 0.5, 100,
			[]string{"Human:"}, "{input}", nil, nil, zap.NewNop())
		m.baseURL = server.URL

		result, err := m.Generate(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "claude answer", result.Answer)
		assert.Equal(t, "claude-3-haiku-20240307", gotRequest.Model)
		assert.Equal(t, 100, gotRequest.MaxTokens)
		assert.Equal(t, []string{"Human:"}, gotRequest.StopSequences)
		require.Len(t, gotRequest.Messages, 1)
		assert.Equal(t, "hello", gotRequest.Messages[0].Content)
	})

	t.Run("api error surfaces its message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "rate_limit_error", "message": "rate limited"},
			})
		}))
		defer server.Close()

		m := NewAnthropicLLM("key-1", "claude-3-haiku-20240307", 0.5, 100,
			nil, "{input}", nil, nil, zap.NewNop())
		m.baseURL = server.URL

		_, err := m.Generate(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("zero max tokens falls back to the default", func(t *testing.T) {
		m := NewAnthropicLLM("key-1", "claude-3-haiku-20240307", 0.5, 0,
			nil, "{input}", nil, nil, zap.NewNop())
		assert.Equal(t, defaultAnthropicMaxTokens, m.maxTokens)
	})
}
