package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/redaia-api/internal/config"
	"github.com/noah-isme/redaia-api/internal/database"
	"github.com/noah-isme/redaia-api/internal/handler"
	"github.com/noah-isme/redaia-api/internal/middleware"
	"github.com/noah-isme/redaia-api/internal/repository"
	"github.com/noah-isme/redaia-api/internal/router"
	"github.com/noah-isme/redaia-api/internal/service"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, statistics cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, evaluation events disabled")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	provider, err := ai.NewProvider(ctx, ai.ProviderConfig{
		Provider:             cfg.AIProvider,
		Timeout:              cfg.AITimeout,
		GeminiAPIKey:         cfg.GeminiAPIKey,
		GeminiModel:          cfg.GeminiModel,
		GeminiDirectEndpoint: cfg.GeminiDirectEndpoint,
		GroqAPIKey:           cfg.GroqAPIKey,
		GroqModel:            cfg.GroqModel,
		GroqBaseURL:          cfg.GroqBaseURL,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create score provider")
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	if !provider.IsConfigured() {
		logger.Warn().Str("provider", provider.Name()).Msg("score provider has no credentials, evaluations will fail")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	themeRepo := repository.NewThemeRepository(db)
	essayRepo := repository.NewEssayRepository(db)

	publisher := service.NewNATSEvaluationPublisher(natsConn, cfg.NATSSubjectPrefix, logger)

	authService := service.NewAuthService(userRepo, refreshTokenRepo, validate, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	themeService := service.NewThemeService(themeRepo, logger)
	essayService := service.NewEssayService(essayRepo, themeRepo, provider, publisher, redisClient, cfg.StatsCacheTTL, validate, logger)

	if inserted, err := themeService.Seed(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed themes")
	} else if inserted > 0 {
		logger.Info().Int64("inserted", inserted).Msg("default themes seeded")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:   handler.NewAuthHandler(authService, logger),
		ThemeHandler:  handler.NewThemeHandler(themeService, logger),
		EssayHandler:  handler.NewEssayHandler(essayService, logger),
		ScoreProvider: provider,
		JWTMiddleware: middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("provider", provider.Name()).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
