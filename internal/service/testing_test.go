package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/redaia-api/internal/models"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Theme{}, &models.Essay{}))
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mini, client
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// structuredEssay has 600 words in five paragraphs, a conclusion marker
// and an intervention marker.
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

type stubScoreProvider struct {
	mu          sync.Mutex
	result      ai.EvaluationResult
	err         error
	calls       int
	lastContent string
	lastTheme   string
}

func (p *stubScoreProvider) Name() string { return "stub" }

func (p *stubScoreProvider) IsConfigured() bool { return true }

func (p *stubScoreProvider) Evaluate(_ context.Context, content, themeTitle string) (ai.EvaluationResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastContent = content
	p.lastTheme = themeTitle
	if p.err != nil {
		return ai.EvaluationResult{}, p.err
	}
	return p.result, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []EvaluationEvent
	err    error
}

func (p *recordingPublisher) PublishEvaluation(_ context.Context, event EvaluationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []EvaluationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]EvaluationEvent(nil), p.events...)
}
