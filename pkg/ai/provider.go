package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Provider names accepted by NewProvider.
const (
	ProviderLocal        = "local"
	ProviderGemini       = "gemini"
	ProviderGroq         = "groq"
	ProviderGeminiDirect = "gemini_direct"
)

// ProviderConfig selects and configures the essay scorer.
type ProviderConfig struct {
	Provider             string
	Timeout              time.Duration
	GeminiAPIKey         string
	GeminiModel          string
	GeminiDirectEndpoint string
	GroqAPIKey           string
	GroqModel            string
	GroqBaseURL          string
}

// NewProvider returns the scorer named by cfg.Provider, defaulting to the
// local heuristic scorer.
func NewProvider(ctx context.Context, cfg ProviderConfig, logger zerolog.Logger) (ScoreProvider, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))

	switch name {
	case "", ProviderLocal:
		return NewHeuristicScorer(), nil
	case ProviderGemini:
		provider, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return provider, nil
	case ProviderGroq:
		return NewGroqProvider(GroqConfig{
			APIKey:  cfg.GroqAPIKey,
			Model:   cfg.GroqModel,
			BaseURL: cfg.GroqBaseURL,
			Timeout: cfg.Timeout,
			Logger:  logger,
		}), nil
	case ProviderGeminiDirect:
		return NewGeminiDirectProvider(GeminiDirectConfig{
			APIKey:   cfg.GeminiAPIKey,
			Endpoint: cfg.GeminiDirectEndpoint,
			Timeout:  cfg.Timeout,
			Logger:   logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown score provider %q", cfg.Provider)
	}
}
