package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func chatCompletionBody(t *testing.T, content string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   defaultGroqModel,
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			},
		},
	})
	require.NoError(t, err)
	return body
}

func newGroqTestProvider(t *testing.T, handler http.HandlerFunc) *RemoteProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGroqProvider(GroqConfig{
		APIKey:  "test-key",
		BaseURL: server.URL + "/openai/v1",
		Timeout: 2 * time.Second,
		Logger:  zerolog.Nop(),
	})
}

func TestGroqProviderEvaluate(t *testing.T) {
	provider := newGroqTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var request struct {
			Model       string  `json:"model"`
			Temperature float32 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Equal(t, defaultGroqModel, request.Model)
		require.InDelta(t, 0.3, request.Temperature, 0.0001)
		require.Equal(t, 4096, request.MaxTokens)
		require.Len(t, request.Messages, 2)
		require.Equal(t, "system", request.Messages[0].Role)
		require.Contains(t, request.Messages[1].Content, "Educação financeira")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatCompletionBody(t, wellFormedENEM))
	})

	require.True(t, provider.IsConfigured())
	require.Equal(t, "groq", provider.Name())

	result, err := provider.Evaluate(context.Background(), "Texto da redação", "Educação financeira")
	require.NoError(t, err)
	require.Equal(t, 840, result.TotalScore)
}

func TestGroqProviderRateLimitedKeepsRetryAfter(t *testing.T) {
	provider := newGroqTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	})

	_, err := provider.Evaluate(context.Background(), "texto", "tema")
	require.ErrorIs(t, err, ErrRateLimited)
	require.Contains(t, err.Error(), "retry after 17")
	require.Contains(t, err.Error(), "Rate limit reached")
}

func TestGroqProviderInvalidCredential(t *testing.T) {
	provider := newGroqTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	})

	_, err := provider.Evaluate(context.Background(), "texto", "tema")
	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestGroqProviderUpstreamFailure(t *testing.T) {
	provider := newGroqTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	})

	_, err := provider.Evaluate(context.Background(), "texto", "tema")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestGroqProviderEmptyChoice(t *testing.T) {
	provider := newGroqTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatCompletionBody(t, ""))
	})

	_, err := provider.Evaluate(context.Background(), "texto", "tema")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGroqProviderWithoutKeyIsDisabled(t *testing.T) {
	provider := NewGroqProvider(GroqConfig{Logger: zerolog.Nop()})

	require.False(t, provider.IsConfigured())
	_, err := provider.Evaluate(context.Background(), "texto", "tema")
	require.ErrorIs(t, err, ErrNotConfigured)
}
