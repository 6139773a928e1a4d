package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

const (
	groqProviderName   = "groq"
	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

// GroqConfig defines configuration options for the Groq chat completions provider.
type GroqConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      zerolog.Logger
}

// NewGroqProvider builds a provider backed by Groq's OpenAI-compatible API.
// A missing key yields an unconfigured provider instead of an error.
func NewGroqProvider(cfg GroqConfig) *RemoteProvider {
	if cfg.Model == "" {
		cfg.Model = defaultGroqModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGroqBaseURL
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	rc := remoteConfig{name: groqProviderName, model: cfg.Model, schema: SchemaENEM, timeout: cfg.Timeout, logger: cfg.Logger}
	if strings.TrimSpace(cfg.APIKey) == "" {
		cfg.Logger.Warn().Str("provider", groqProviderName).Msg("groq api key not set; provider disabled")
		return newRemoteProvider(rc, nil)
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	config.HTTPClient = &retryAfterRecorder{client: cfg.HTTPClient}
	client := openai.NewClientWithConfig(config)

	send := func(ctx context.Context, prompt string) (string, error) {
		var retryAfter string
		ctx = context.WithValue(ctx, retryAfterKey{}, &retryAfter)

		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: graderSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		})
		if err != nil {
			return "", classifyOpenAIError(groqProviderName, err, retryAfter)
		}
		if len(resp.Choices) == 0 {
			return "", nil
		}
		return resp.Choices[0].Message.Content, nil
	}

	return newRemoteProvider(rc, send)
}

type retryAfterKey struct{}

// retryAfterRecorder copies the Retry-After header of each response into the
// holder carried by the request context.
type retryAfterRecorder struct {
	client *http.Client
}

func (r *retryAfterRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.client.Do(req)
	if resp != nil {
		if holder, ok := req.Context().Value(retryAfterKey{}).(*string); ok {
			*holder = resp.Header.Get("Retry-After")
		}
	}
	return resp, err
}

func classifyOpenAIError(provider string, err error, retryAfter string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return classifyStatus(provider, apiErr.HTTPStatusCode, apiErr.Message, retryAfter)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		message := strings.TrimSpace(string(reqErr.Body))
		if message == "" && reqErr.Err != nil {
			message = reqErr.Err.Error()
		}
		return classifyStatus(provider, reqErr.HTTPStatusCode, message, retryAfter)
	}

	return upstreamError(provider, err)
}
