package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	geminiDirectProviderName = "gemini_direct"
	defaultGeminiEndpoint    = "https://generativelanguage.googleapis.com/v1/models/gemini-1.5-flash-latest:generateContent"
	maxDirectResponseBytes   = 4 << 20
)

// GeminiDirectConfig configures the plain-HTTP Gemini provider.
type GeminiDirectConfig struct {
	APIKey     string
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

type generateContentPart struct {
	Text string `json:"text"`
}

type generateContentBody struct {
	Parts []generateContentPart `json:"parts"`
}

type generateContentRequest struct {
	Contents []generateContentBody `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content generateContentBody `json:"content"`
	} `json:"candidates"`
}

type googleErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiDirectProvider builds a provider that posts to the
// generateContent REST endpoint and asks for the 0-100 "nota" schema.
func NewGeminiDirectProvider(cfg GeminiDirectConfig) *RemoteProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultGeminiEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	rc := remoteConfig{name: geminiDirectProviderName, model: modelFromEndpoint(cfg.Endpoint), schema: SchemaNota, timeout: cfg.Timeout, logger: cfg.Logger}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.Logger.Warn().Str("provider", geminiDirectProviderName).Msg("gemini api key not set; provider disabled")
		return newRemoteProvider(rc, nil)
	}

	client := cfg.HTTPClient
	send := func(ctx context.Context, prompt string) (string, error) {
		payload, err := json.Marshal(generateContentRequest{
			Contents: []generateContentBody{{Parts: []generateContentPart{{Text: prompt}}}},
		})
		if err != nil {
			return "", fmt.Errorf("encode gemini request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return "", upstreamError(geminiDirectProviderName, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", cfg.APIKey)

		resp, err := client.Do(req)
		if err != nil {
			return "", upstreamError(geminiDirectProviderName, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxDirectResponseBytes))
		if err != nil {
			return "", upstreamError(geminiDirectProviderName, err)
		}

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return "", classifyStatus(geminiDirectProviderName, resp.StatusCode, googleErrorMessage(body, resp.Status), resp.Header.Get("Retry-After"))
		}

		var decoded generateContentResponse
		if err := json.Unmarshal(body, &decoded); err != nil {
			return "", &ProviderError{Provider: geminiDirectProviderName, StatusCode: resp.StatusCode, Message: err.Error(), Kind: ErrMalformedResponse}
		}
		if len(decoded.Candidates) == 0 {
			return "", nil
		}

		var b strings.Builder
		for _, part := range decoded.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
		return b.String(), nil
	}

	return newRemoteProvider(rc, send)
}

func googleErrorMessage(body []byte, fallback string) string {
	var decoded googleErrorResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		return text
	}
	return fallback
}

func modelFromEndpoint(endpoint string) string {
	idx := strings.LastIndex(endpoint, "/models/")
	if idx < 0 {
		return "unknown"
	}
	model := endpoint[idx+len("/models/"):]
	if colon := strings.Index(model, ":"); colon >= 0 {
		model = model[:colon]
	}
	return model
}
