package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/redaia-api/internal/config"
	"github.com/noah-isme/redaia-api/internal/handler"
	"github.com/noah-isme/redaia-api/internal/middleware"
	"github.com/noah-isme/redaia-api/internal/observability"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

// authAttemptsPerMinute caps register and login calls per client IP.
const authAttemptsPerMinute = 10

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler   *handler.AuthHandler
	ThemeHandler  *handler.ThemeHandler
	EssayHandler  *handler.EssayHandler
	ScoreProvider ai.ScoreProvider
	JWTMiddleware fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.ScoreProvider))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	authenticated := []fiber.Handler{jwtMiddleware, middleware.RequireUser()}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		deps.AuthHandler.Register(auth, middleware.RateLimit("auth", authAttemptsPerMinute, time.Minute))

		users := api.Group("/users", authenticated...)
		deps.AuthHandler.RegisterProfile(users)
	}

	if deps.ThemeHandler != nil {
		deps.ThemeHandler.Register(api.Group("/themes"))
	}

	if deps.EssayHandler != nil {
		essays := api.Group("/essays", authenticated...)
		deps.EssayHandler.Register(essays, middleware.RateLimit("evaluate", cfg.EvaluationRateLimit, time.Minute))
	}
}
