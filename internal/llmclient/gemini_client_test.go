// File: internal/llmclient/gemini_client_test.go
package llmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/feedpilot/feedpilot-cli/api/schemas"
	"github.com/feedpilot/feedpilot-cli/internal/config"
)

func geminiSuccessBody(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{
				"content":      map[string]any{"parts": []map[string]string{{"text": text}}},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]int{"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func newGeminiClient(t *testing.T, endpoint string) *GeminiClient {
	t.Helper()
	client, err := NewGeminiClient(config.LLMConfig{
		Provider:        config.ProviderGemini,
		APIKey:          "test-key",
		Endpoint:        endpoint,
		Model:           "test-model",
		APITimeout:      2 * time.Second,
		MaxRetryElapsed: 3 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestNewGeminiClient_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiClient(config.LLMConfig{}, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestGeminiClient_Complete(t *testing.T) {
	var gotPayload geminiRequestPayload
	var gotAPIKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(geminiSuccessBody(`{"action": {"type": "skip"}}`)))
	}))
	defer server.Close()

	client := newGeminiClient(t, server.URL)
	response, err := client.Complete(context.Background(), schemas.CompletionRequest{
		SystemPrompt:    "system instructions",
		UserPrompt:      "current state",
		Temperature:     0.2,
		ForceJSONFormat: true,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"action": {"type": "skip"}}`, response)
	assert.Equal(t, "test-key", gotAPIKey)

	require.Len(t, gotPayload.Contents, 1)
	assert.Equal(t, "current state", gotPayload.Contents[0].Parts[0].Text)
	require.NotNil(t, gotPayload.SystemInstruction)
	assert.Equal(t, "system instructions", gotPayload.SystemInstruction.Parts[0].Text)
	assert.Equal(t, 0.2, gotPayload.GenerationConfig.Temperature)
	assert.Equal(t, "application/json", gotPayload.GenerationConfig.ResponseMimeType)
}

func TestGeminiClient_PermanentErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error": "invalid request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := newGeminiClient(t, server.URL)
	_, err := client.Complete(context.Background(), schemas.CompletionRequest{UserPrompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load(), "4xx responses must not be retried")
}

func TestGeminiClient_TransientErrorRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(geminiSuccessBody("recovered")))
	}))
	defer server.Close()

	client := newGeminiClient(t, server.URL)
	response, err := client.Complete(context.Background(), schemas.CompletionRequest{UserPrompt: "x"})

	require.NoError(t, err)
	assert.Equal(t, "recovered", response)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeminiClient_SafetyBlockIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"candidates": [{"content": {"parts": []}, "finishReason": "SAFETY"}]}`))
	}))
	defer server.Close()

	client := newGeminiClient(t, server.URL)
	_, err := client.Complete(context.Background(), schemas.CompletionRequest{UserPrompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiClient_NoCandidatesIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	defer server.Close()

	client := newGeminiClient(t, server.URL)
	_, err := client.Complete(context.Background(), schemas.CompletionRequest{UserPrompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestNewCompleter_Factory(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("gemini provider", func(t *testing.T) {
		completer, err := NewCompleter(config.LLMConfig{Provider: config.ProviderGemini, APIKey: "k"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &GeminiClient{}, completer)
	})

	t.Run("http provider", func(t *testing.T) {
		completer, err := NewCompleter(config.LLMConfig{Provider: config.ProviderHTTP, Endpoint: "http://localhost:9"}, logger)
		require.NoError(t, err)
		assert.IsType(t, &HTTPClient{}, completer)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewCompleter(config.LLMConfig{Provider: "oracle"}, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported LLM provider")
	})
}
