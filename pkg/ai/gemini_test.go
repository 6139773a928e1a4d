package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyGeminiError(t *testing.T) {
	rateLimited := classifyGeminiError(&googleapi.Error{
		Code:    http.StatusTooManyRequests,
		Message: "quota exceeded",
		Header:  http.Header{"Retry-After": []string{"30"}},
	})
	require.ErrorIs(t, rateLimited, ErrRateLimited)
	require.Contains(t, rateLimited.Error(), "retry after 30")

	require.ErrorIs(t, classifyGeminiError(&googleapi.Error{Code: http.StatusUnauthorized}), ErrInvalidCredential)
	require.ErrorIs(t, classifyGeminiError(&googleapi.Error{Code: http.StatusInternalServerError}), ErrUpstream)
	require.ErrorIs(t, classifyGeminiError(status.Error(codes.ResourceExhausted, "quota")), ErrRateLimited)
	require.ErrorIs(t, classifyGeminiError(status.Error(codes.Unauthenticated, "bad key")), ErrInvalidCredential)
	require.ErrorIs(t, classifyGeminiError(status.Error(codes.PermissionDenied, "denied")), ErrInvalidCredential)
	require.ErrorIs(t, classifyGeminiError(status.Error(codes.Internal, "boom")), ErrUpstream)
	require.ErrorIs(t, classifyGeminiError(errors.New("dial tcp: refused")), ErrUpstream)
}

func TestGeminiResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"totalScore":`), genai.Text(` 900}`)}}},
		},
	}
	require.Equal(t, `{"totalScore": 900}`, geminiResponseText(resp))
	require.Empty(t, geminiResponseText(&genai.GenerateContentResponse{}))
	require.Empty(t, geminiResponseText(nil))
}

func newGeminiTestProvider(t *testing.T, handler http.HandlerFunc) *RemoteProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey:        "gemini-key",
		Timeout:       5 * time.Second,
		ClientOptions: []option.ClientOption{option.WithEndpoint(server.URL), option.WithHTTPClient(server.Client())},
		Logger:        zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })
	return provider
}

func TestGeminiProviderEvaluate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		provider := newGeminiTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.True(t, strings.HasSuffix(r.URL.Path, "/models/"+defaultGeminiModel+":generateContent"), r.URL.Path)

			raw, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.Contains(t, string(raw), "Mobilidade urbana")
			require.Contains(t, string(raw), "application/json")

			text := `{"totalScore": 800, "scores": {"c1": 160, "c2": 160, "c3": 160, "c4": 160, "c5": 160},
				"feedbacks": {"c1": "a", "c2": "b", "c3": "c", "c4": "d", "c5": "e"},
				"strongPoints": ["Coesão"], "improvements": ["Repertório"], "rewriteSuggestion": "Detalhe o agente."}`
			body, err := json.Marshal(map[string]interface{}{
				"candidates": []map[string]interface{}{
					{
						"content":      map[string]interface{}{"role": "model", "parts": []map[string]string{{"text": text}}},
						"finishReason": "STOP",
						"index":        0,
					},
				},
			})
			require.NoError(t, err)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write(body)
		})

		require.True(t, provider.IsConfigured())
		require.Equal(t, "gemini", provider.Name())

		result, err := provider.Evaluate(context.Background(), "Texto da redação", "Mobilidade urbana")
		require.NoError(t, err)
		require.Equal(t, 800, result.TotalScore)
		require.Equal(t, Competencies{C1: 160, C2: 160, C3: 160, C4: 160, C5: 160}, result.Scores)
		require.Equal(t, []string{"Coesão"}, result.StrongPoints)
		require.Equal(t, "Detalhe o agente.", result.RewriteSuggestion)
	})

	t.Run("rate limited", func(t *testing.T) {
		provider := newGeminiTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "42")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
		})

		_, err := provider.Evaluate(context.Background(), "Texto da redação", "Mobilidade urbana")
		require.ErrorIs(t, err, ErrRateLimited)
		require.EqualError(t, err, "gemini: score provider rate limited (status 429): quota exceeded; retry after 42")

		var providerErr *ProviderError
		require.True(t, errors.As(err, &providerErr))
		require.Equal(t, "42", providerErr.RetryAfter)
	})
}

func TestGeminiProviderWithoutKeyIsDisabled(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), GeminiConfig{Logger: zerolog.Nop()})
	require.NoError(t, err)

	require.False(t, provider.IsConfigured())
	require.Equal(t, defaultGeminiModel, provider.Model())

	_, err = provider.Evaluate(context.Background(), "texto", "tema")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewProviderSelectsImplementation(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()

	local, err := NewProvider(ctx, ProviderConfig{}, logger)
	require.NoError(t, err)
	require.Equal(t, ProviderLocal, local.Name())

	groq, err := NewProvider(ctx, ProviderConfig{Provider: "GROQ"}, logger)
	require.NoError(t, err)
	require.Equal(t, ProviderGroq, groq.Name())
	require.False(t, groq.IsConfigured())

	direct, err := NewProvider(ctx, ProviderConfig{Provider: ProviderGeminiDirect, GeminiAPIKey: "k"}, logger)
	require.NoError(t, err)
	require.Equal(t, ProviderGeminiDirect, direct.Name())
	require.True(t, direct.IsConfigured())

	gemini, err := NewProvider(ctx, ProviderConfig{Provider: ProviderGemini}, logger)
	require.NoError(t, err)
	require.Equal(t, ProviderGemini, gemini.Name())

	_, err = NewProvider(ctx, ProviderConfig{Provider: "anthropic"}, logger)
	require.Error(t, err)
}
