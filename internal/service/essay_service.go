package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/redaia-api/internal/dto"
	"github.com/noah-isme/redaia-api/internal/models"
	"github.com/noah-isme/redaia-api/internal/observability"
	"github.com/noah-isme/redaia-api/internal/repository"
	"github.com/noah-isme/redaia-api/pkg/ai"
)

// MinEvaluationLength is the minimum trimmed character count an essay needs
// before it can be scored.
const MinEvaluationLength = 100

const (
	defaultEssayPageSize = 50
	recentScoresLimit    = 10
)

var (
	// ErrEssayNotFound is returned when an essay does not exist or belongs to another user.
	ErrEssayNotFound = errors.New("essay not found")
	// ErrEssayTooShort is returned when an essay is too short to be evaluated.
	ErrEssayTooShort = fmt.Errorf("essay must have at least %d characters to be evaluated", MinEvaluationLength)
	// ErrEssayContentEmpty is returned when content is blank after trimming.
	ErrEssayContentEmpty = errors.New("essay content must not be empty")
)

// EssayService manages the essay lifecycle from draft to evaluation.
type EssayService interface {
	Create(ctx context.Context, userID uint, payload dto.EssayCreateRequest) (dto.EssayResponse, error)
	Get(ctx context.Context, id, userID uint) (dto.EssayResponse, error)
	List(ctx context.Context, userID uint, query dto.EssayListQuery) (dto.EssayListResponse, error)
	Update(ctx context.Context, id, userID uint, payload dto.EssayUpdateRequest) (dto.EssayResponse, error)
	Evaluate(ctx context.Context, id, userID uint) (dto.EssayResponse, error)
	Delete(ctx context.Context, id, userID uint) error
	Statistics(ctx context.Context, userID uint) (dto.EssayStatisticsResponse, error)
}

type essayService struct {
	essays    repository.EssayRepository
	themes    repository.ThemeRepository
	provider  ai.ScoreProvider
	publisher EvaluationPublisher
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewEssayService constructs the essay service. cache and publisher may be nil.
func NewEssayService(essays repository.EssayRepository, themes repository.ThemeRepository, provider ai.ScoreProvider, publisher EvaluationPublisher, cache *redis.Client, cacheTTL time.Duration, validate *validator.Validate, logger zerolog.Logger) EssayService {
	if publisher == nil {
		publisher = NoopEvaluationPublisher{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	return &essayService{
		essays:    essays,
		themes:    themes,
		provider:  provider,
		publisher: publisher,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		tracer:    otel.Tracer("github.com/noah-isme/redaia-api/internal/service/essay"),
		logger:    logger.With().Str("component", "essay_service").Logger(),
		now:       time.Now,
	}
}

func (s *essayService) Create(ctx context.Context, userID uint, payload dto.EssayCreateRequest) (dto.EssayResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EssayResponse{}, err
	}

	content := cleanText(payload.Content)
	if content == "" {
		return dto.EssayResponse{}, ErrEssayContentEmpty
	}

	theme, err := s.resolveTheme(ctx, payload.ThemeID)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	essay := models.Essay{
		UserID:    userID,
		ThemeID:   theme.ID,
		Title:     cleanTitle(payload.Title),
		Content:   content,
		WordCount: countWords(content),
		CharCount: utf8.RuneCountInString(content),
	}

	if err := s.essays.Create(ctx, &essay); err != nil {
		return dto.EssayResponse{}, err
	}
	essay.Theme = theme

	s.invalidateStatistics(ctx, userID)
	s.logger.Info().Uint("essay_id", essay.ID).Uint("user_id", userID).Uint("theme_id", theme.ID).Int("words", essay.WordCount).Msg("essay created")

	return dto.NewEssayResponse(essay), nil
}

func (s *essayService) Get(ctx context.Context, id, userID uint) (dto.EssayResponse, error) {
	essay, err := s.load(ctx, id, userID)
	if err != nil {
		return dto.EssayResponse{}, err
	}
	return dto.NewEssayResponse(essay), nil
}

func (s *essayService) List(ctx context.Context, userID uint, query dto.EssayListQuery) (dto.EssayListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.EssayListResponse{}, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultEssayPageSize
	}

	essays, total, err := s.essays.List(ctx, repository.EssayFilter{
		UserID:         userID,
		ThemeID:        query.ThemeID,
		IsEvaluated:    query.IsEvaluated,
		OrderBy:        query.OrderBy,
		OrderDirection: query.OrderDirection,
		Limit:          limit,
		Offset:         query.Offset,
	})
	if err != nil {
		return dto.EssayListResponse{}, err
	}

	return dto.EssayListResponse{
		Items: dto.NewEssayResponses(essays),
		Pagination: dto.Pagination{
			Total:   total,
			Limit:   limit,
			Offset:  query.Offset,
			HasMore: int64(query.Offset+len(essays)) < total,
		},
	}, nil
}

func (s *essayService) Update(ctx context.Context, id, userID uint, payload dto.EssayUpdateRequest) (dto.EssayResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EssayResponse{}, err
	}

	essay, err := s.load(ctx, id, userID)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	fields := map[string]interface{}{}
	if payload.Title != nil {
		fields["title"] = cleanTitle(payload.Title)
	}
	if payload.ThemeID != nil {
		theme, err := s.resolveTheme(ctx, payload.ThemeID)
		if err != nil {
			return dto.EssayResponse{}, err
		}
		fields["theme_id"] = theme.ID
	}
	if payload.Content != nil {
		content := cleanText(*payload.Content)
		if content == "" {
			return dto.EssayResponse{}, ErrEssayContentEmpty
		}
		fields["content"] = content
		fields["word_count"] = countWords(content)
		fields["char_count"] = utf8.RuneCountInString(content)
		for column, value := range evaluationResetColumns() {
			fields[column] = value
		}
	}

	if len(fields) == 0 {
		return dto.NewEssayResponse(essay), nil
	}

	if err := s.essays.UpdateFields(ctx, id, userID, fields); err != nil {
		return dto.EssayResponse{}, s.mapNotFound(err)
	}

	s.invalidateStatistics(ctx, userID)
	return s.Get(ctx, id, userID)
}

// Evaluate scores the essay and stores the result in one update. Provider
// errors are returned as-is and leave the stored essay untouched.
func (s *essayService) Evaluate(ctx context.Context, id, userID uint) (dto.EssayResponse, error) {
	ctx, span := s.tracer.Start(ctx, "essays.evaluate", trace.WithAttributes(
		attribute.Int64("essay.id", int64(id)),
		attribute.String("essay.provider", s.provider.Name()),
	))
	defer span.End()

	essay, err := s.load(ctx, id, userID)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	if utf8.RuneCountInString(strings.TrimSpace(essay.Content)) < MinEvaluationLength {
		return dto.EssayResponse{}, ErrEssayTooShort
	}

	start := s.now()
	result, err := s.provider.Evaluate(ctx, essay.Content, essay.Theme.Title)
	if err != nil {
		observability.EssayEvaluations().WithLabelValues(s.provider.Name(), ai.FailureReason(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn().Err(err).Uint("essay_id", id).Str("provider", s.provider.Name()).Msg("essay evaluation failed")
		return dto.EssayResponse{}, err
	}

	evaluatedAt := s.now().UTC()
	fields, err := evaluationColumns(result, evaluatedAt)
	if err != nil {
		return dto.EssayResponse{}, err
	}

	if err := s.essays.UpdateFields(ctx, id, userID, fields); err != nil {
		return dto.EssayResponse{}, s.mapNotFound(err)
	}

	observability.EssayEvaluations().WithLabelValues(s.provider.Name(), "success").Inc()
	span.SetAttributes(attribute.Int("essay.total_score", result.TotalScore))
	s.logger.Info().
		Uint("essay_id", id).
		Str("provider", s.provider.Name()).
		Int("total_score", result.TotalScore).
		Dur("elapsed", s.now().Sub(start)).
		Msg("essay evaluated")

	s.invalidateStatistics(ctx, userID)

	event := EvaluationEvent{
		EssayID:     id,
		UserID:      userID,
		ThemeID:     essay.ThemeID,
		TotalScore:  result.TotalScore,
		Provider:    s.provider.Name(),
		EvaluatedAt: evaluatedAt,
	}
	if err := s.publisher.PublishEvaluation(ctx, event); err != nil {
		s.logger.Warn().Err(err).Uint("essay_id", id).Msg("failed to publish evaluation event")
	}

	return s.Get(ctx, id, userID)
}

func (s *essayService) Delete(ctx context.Context, id, userID uint) error {
	if err := s.essays.Delete(ctx, id, userID); err != nil {
		return s.mapNotFound(err)
	}

	s.invalidateStatistics(ctx, userID)
	s.logger.Info().Uint("essay_id", id).Uint("user_id", userID).Msg("essay deleted")
	return nil
}

func (s *essayService) Statistics(ctx context.Context, userID uint) (dto.EssayStatisticsResponse, error) {
	cacheKey := statisticsCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.EssayStatisticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatisticsCacheLookups().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read statistics cache")
		}
		observability.StatisticsCacheLookups().WithLabelValues("miss").Inc()
	}

	stats, err := s.essays.Stats(ctx, userID)
	if err != nil {
		return dto.EssayStatisticsResponse{}, err
	}

	recent, err := s.essays.RecentEvaluated(ctx, userID, recentScoresLimit)
	if err != nil {
		return dto.EssayStatisticsResponse{}, err
	}

	response := dto.EssayStatisticsResponse{
		TotalEssays:     stats.Total,
		EvaluatedEssays: stats.Evaluated,
		AverageScore:    roundAverage(stats.AvgTotal),
		AverageByCompetency: dto.CompetencyScores{
			C1: roundAverage(stats.AvgC1),
			C2: roundAverage(stats.AvgC2),
			C3: roundAverage(stats.AvgC3),
			C4: roundAverage(stats.AvgC4),
			C5: roundAverage(stats.AvgC5),
		},
		RecentScores: make([]dto.ScoreHistoryItem, 0, len(recent)),
	}
	for _, essay := range recent {
		if essay.TotalScore == nil || essay.EvaluatedAt == nil {
			continue
		}
		response.RecentScores = append(response.RecentScores, dto.ScoreHistoryItem{
			EssayID:     essay.ID,
			TotalScore:  *essay.TotalScore,
			EvaluatedAt: *essay.EvaluatedAt,
		})
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store statistics cache")
			}
		}
	}

	return response, nil
}

func (s *essayService) load(ctx context.Context, id, userID uint) (models.Essay, error) {
	essay, err := s.essays.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return models.Essay{}, s.mapNotFound(err)
	}
	return essay, nil
}

func (s *essayService) resolveTheme(ctx context.Context, themeID *uint) (models.Theme, error) {
	if themeID != nil {
		theme, err := s.themes.GetActiveByID(ctx, *themeID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Theme{}, ErrThemeNotFound
		}
		return theme, err
	}

	theme, err := s.themes.RandomActive(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Theme{}, ErrNoActiveThemes
	}
	return theme, err
}

func (s *essayService) mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrEssayNotFound
	}
	return err
}

func (s *essayService) invalidateStatistics(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statisticsCacheKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate statistics cache")
	}
}

// cleanText trims surrounding whitespace and drops NUL bytes, which Postgres
// text columns reject. Everything else, markup-like text included, is stored
// verbatim.
func cleanText(input string) string {
	return strings.TrimSpace(strings.ReplaceAll(input, "\x00", ""))
}

func cleanTitle(title *string) *string {
	if title == nil {
		return nil
	}
	clean := cleanText(*title)
	if clean == "" {
		return nil
	}
	return &clean
}

func statisticsCacheKey(userID uint) string {
	return fmt.Sprintf("stats:essays:user:%d", userID)
}

func countWords(content string) int {
	return len(strings.Fields(content))
}

func roundAverage(value *float64) int {
	if value == nil {
		return 0
	}
	return int(math.Round(*value))
}

// evaluationColumns renders a scoring result as one column update.
func evaluationColumns(result ai.EvaluationResult, evaluatedAt time.Time) (map[string]interface{}, error) {
	strong, err := models.EncodeStringList(nonNil(result.StrongPoints))
	if err != nil {
		return nil, err
	}
	improvements, err := models.EncodeStringList(nonNil(result.Improvements))
	if err != nil {
		return nil, err
	}

	var rewrite interface{}
	if trimmed := strings.TrimSpace(result.RewriteSuggestion); trimmed != "" {
		rewrite = trimmed
	}

	scores := result.Scores.Values()
	feedbacks := result.Feedbacks.Values()
	fields := map[string]interface{}{
		"is_evaluated":       true,
		"total_score":        result.TotalScore,
		"strong_points":      strong,
		"improvements":       improvements,
		"rewrite_suggestion": rewrite,
		"evaluated_at":       evaluatedAt,
	}
	for i := range scores {
		fields[fmt.Sprintf("score_c%d", i+1)] = scores[i]
		fields[fmt.Sprintf("feedback_c%d", i+1)] = feedbacks[i]
	}
	return fields, nil
}

// evaluationResetColumns returns an essay to the draft state.
func evaluationResetColumns() map[string]interface{} {
	fields := map[string]interface{}{
		"is_evaluated":       false,
		"total_score":        nil,
		"strong_points":      nil,
		"improvements":       nil,
		"rewrite_suggestion": nil,
		"evaluated_at":       nil,
	}
	for i := 1; i <= 5; i++ {
		fields[fmt.Sprintf("score_c%d", i)] = nil
		fields[fmt.Sprintf("feedback_c%d", i)] = nil
	}
	return fields
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
