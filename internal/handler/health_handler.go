package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/redaia-api/internal/config"
	"github.com/noah-isme/redaia-api/internal/utils"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string         `json:"status"`
	Timestamp   time.Time      `json:"timestamp"`
	Service     string         `json:"service"`
	Environment string         `json:"environment"`
	Scoring     ScoringSummary `json:"scoring"`
}

// ScoringSummary reports which score provider is active.
type ScoringSummary struct {
	Provider   string `json:"provider"`
	Configured bool   `json:"configured"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config, provider ai.ScoreProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}
		if provider != nil {
			payload.Scoring = ScoringSummary{Provider: provider.Name(), Configured: provider.IsConfigured()}
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}
