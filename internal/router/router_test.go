package router_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/redaia-api/internal/config"
	"github.com/noah-isme/redaia-api/internal/middleware"
	"github.com/noah-isme/redaia-api/internal/router"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

func TestRegisterExposesHealthAndMetrics(t *testing.T) {
	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	router.Register(app, config.Config{AppName: "RedaIA API"}, router.Dependencies{
		ScoreProvider: ai.NewHeuristicScorer(),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "RedaIA API", resp.Header.Get("X-Application"))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "redaia_api_requests_total")
}

func TestRegisterSkipsMissingHandlers(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/essays", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
