package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	geminiProviderName = "gemini"
	defaultGeminiModel = "gemini-1.5-flash"
)

// GeminiConfig configures the Gemini SDK provider.
type GeminiConfig struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	ClientOptions []option.ClientOption
	Logger        zerolog.Logger
}

// NewGeminiProvider builds a provider backed by the Gemini SDK. A missing
// key yields an unconfigured provider; a client construction failure is
// returned as an error.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*RemoteProvider, error) {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}

	rc := remoteConfig{name: geminiProviderName, model: cfg.Model, schema: SchemaENEM, timeout: cfg.Timeout, logger: cfg.Logger}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.Logger.Warn().Str("provider", geminiProviderName).Msg("gemini api key not set; provider disabled")
		return newRemoteProvider(rc, nil), nil
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.ClientOptions...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.3)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(graderSystemPrompt)}}

	send := func(ctx context.Context, prompt string) (string, error) {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", classifyGeminiError(err)
		}
		return geminiResponseText(resp), nil
	}

	provider := newRemoteProvider(rc, send)
	provider.closer = client.Close
	return provider, nil
}

func geminiResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		retryAfter := ""
		if apiErr.Header != nil {
			retryAfter = apiErr.Header.Get("Retry-After")
		}
		return classifyStatus(geminiProviderName, apiErr.Code, apiErr.Message, retryAfter)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return classifyStatus(geminiProviderName, http.StatusTooManyRequests, st.Message(), "")
		case codes.Unauthenticated, codes.PermissionDenied:
			return classifyStatus(geminiProviderName, http.StatusUnauthorized, st.Message(), "")
		case codes.OK:
		default:
			return &ProviderError{Provider: geminiProviderName, Message: st.Message(), Kind: ErrUpstream}
		}
	}

	return upstreamError(geminiProviderName, err)
}
