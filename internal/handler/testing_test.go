package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/redaia-api/internal/config"
	"github.com/noah-isme/redaia-api/internal/database"
	"github.com/noah-isme/redaia-api/internal/handler"
	"github.com/noah-isme/redaia-api/internal/middleware"
	"github.com/noah-isme/redaia-api/internal/repository"
	"github.com/noah-isme/redaia-api/internal/router"
	"github.com/noah-isme/redaia-api/internal/service"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

const testSecret = "handler-test-secret"

type envelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    json.RawMessage      `json:"data"`
	Meta    json.RawMessage      `json:"meta"`
	Details []handler.FieldError `json:"details"`
}

// switchableProvider scores with the heuristic scorer unless an error is set.
type switchableProvider struct {
	mu    sync.Mutex
	err   error
	calls int
	local *ai.HeuristicScorer
}

func (p *switchableProvider) Name() string { return "switchable" }

func (p *switchableProvider) IsConfigured() bool { return true }

func (p *switchableProvider) Evaluate(ctx context.Context, content, themeTitle string) (ai.EvaluationResult, error) {
	p.mu.Lock()
	p.calls++
	err := p.err
	p.mu.Unlock()
	if err != nil {
		return ai.EvaluationResult{}, err
	}
	return p.local.Evaluate(ctx, content, themeTitle)
}

func (p *switchableProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	provider *switchableProvider
}

func newTestServer(t *testing.T, evaluationLimit int) *testServer {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	provider := &switchableProvider{local: ai.NewHeuristicScorer()}

	themeService := service.NewThemeService(repository.NewThemeRepository(db), logger)
	_, err = themeService.Seed(context.Background())
	require.NoError(t, err)

	authService := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		validate,
		testSecret,
		time.Hour,
		24*time.Hour,
		logger,
	)
	essayService := service.NewEssayService(
		repository.NewEssayRepository(db),
		repository.NewThemeRepository(db),
		provider,
		service.NoopEvaluationPublisher{},
		nil,
		time.Minute,
		validate,
		logger,
	)

	cfg := config.Config{AppName: "RedaIA Test", AppEnv: "test", EvaluationRateLimit: evaluationLimit}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:   handler.NewAuthHandler(authService, logger),
		ThemeHandler:  handler.NewThemeHandler(themeService, logger),
		EssayHandler:  handler.NewEssayHandler(essayService, logger),
		ScoreProvider: provider,
		JWTMiddleware: middleware.JWTProtected(testSecret),
	})

	return &testServer{app: app, db: db, provider: provider}
}

func (s *testServer) do(t *testing.T, method, path string, payload interface{}, token string) (*http.Response, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)

	var decoded envelope
	decodeResponse(t, resp, &decoded)
	return resp, decoded
}

// register creates an account and returns its access token.
func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()

	resp, body := s.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Estudante",
		"email":    email,
		"password": "senha-segura",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, body.Message)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	if len(data) == 0 {
		return
	}
	require.NoError(t, json.Unmarshal(data, target))
}

// structuredEssay has 600 words in five paragraphs with conclusion and
// intervention markers.
func structuredEssay() string {
	repeat := func(n int) string {
		return strings.TrimSpace(strings.Repeat("argumento ", n))
	}
	return strings.Join([]string{
		repeat(120),
		repeat(120),
		repeat(120),
		repeat(118) + " política pública",
		repeat(119) + " portanto",
	}, "\n\n")
}

func handlerFieldError(field, rule, param string) handler.FieldError {
	return handler.FieldError{Field: field, Rule: rule, Param: param}
}
