package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/redaia-api/internal/models"
)

func seedEssayFixtures(t *testing.T) (*gorm.DB, models.Theme, models.Theme) {
	t.Helper()
	db := setupTestDB(t, &models.Theme{}, &models.User{}, &models.Essay{})

	education := models.Theme{Title: "Educação", Description: "d", Category: "Educação"}
	health := models.Theme{Title: "Saúde", Description: "d", Category: "Saúde"}
	require.NoError(t, db.Create(&education).Error)
	require.NoError(t, db.Create(&health).Error)
	return db, education, health
}

func intPtr(v int) *int { return &v }

func TestEssayRepositoryScopesByOwner(t *testing.T) {
	db, theme, _ := seedEssayFixtures(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	essay := models.Essay{UserID: 1, ThemeID: theme.ID, Content: "texto", WordCount: 1, CharCount: 5}
	require.NoError(t, repo.Create(ctx, &essay))
	require.NotZero(t, essay.ID)

	found, err := repo.GetByIDForUser(ctx, essay.ID, 1)
	require.NoError(t, err)
	require.Equal(t, "Educação", found.Theme.Title)
	require.Nil(t, found.StrongPoints)

	_, err = repo.GetByIDForUser(ctx, essay.ID, 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.UpdateFields(ctx, essay.ID, 2, map[string]interface{}{"content": "outro"})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.ErrorIs(t, repo.Delete(ctx, essay.ID, 2), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, essay.ID, 1))
	require.ErrorIs(t, repo.Delete(ctx, essay.ID, 1), gorm.ErrRecordNotFound)
}

func TestEssayRepositoryUpdateFieldsPersistsLists(t *testing.T) {
	db, theme, _ := seedEssayFixtures(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	essay := models.Essay{UserID: 1, ThemeID: theme.ID, Content: "texto"}
	require.NoError(t, repo.Create(ctx, &essay))

	strong, err := models.EncodeStringList([]string{"Boa coesão"})
	require.NoError(t, err)
	empty, err := models.EncodeStringList([]string{})
	require.NoError(t, err)

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateFields(ctx, essay.ID, 1, map[string]interface{}{
		"is_evaluated":  true,
		"total_score":   880,
		"strong_points": strong,
		"improvements":  empty,
		"evaluated_at":  now,
	}))

	found, err := repo.GetByIDForUser(ctx, essay.ID, 1)
	require.NoError(t, err)
	require.True(t, found.IsEvaluated)
	require.Equal(t, 880, *found.TotalScore)
	require.Equal(t, []string{"Boa coesão"}, found.StrongPoints)
	require.NotNil(t, found.Improvements)
	require.Empty(t, found.Improvements)

	require.NoError(t, repo.UpdateFields(ctx, essay.ID, 1, map[string]interface{}{
		"is_evaluated":  false,
		"total_score":   nil,
		"strong_points": nil,
		"improvements":  nil,
		"evaluated_at":  nil,
	}))

	found, err = repo.GetByIDForUser(ctx, essay.ID, 1)
	require.NoError(t, err)
	require.False(t, found.IsEvaluated)
	require.Nil(t, found.TotalScore)
	require.Nil(t, found.StrongPoints)
	require.Nil(t, found.EvaluatedAt)
}

func TestEssayRepositoryListFiltersOrdersAndPaginates(t *testing.T) {
	db, education, health := seedEssayFixtures(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	fixtures := []models.Essay{
		{UserID: 1, ThemeID: education.ID, Content: "a", IsEvaluated: true, TotalScore: intPtr(600), CreatedAt: base},
		{UserID: 1, ThemeID: education.ID, Content: "b", IsEvaluated: true, TotalScore: intPtr(920), CreatedAt: base.Add(time.Minute)},
		{UserID: 1, ThemeID: health.ID, Content: "c", CreatedAt: base.Add(2 * time.Minute)},
		{UserID: 2, ThemeID: health.ID, Content: "d", CreatedAt: base.Add(3 * time.Minute)},
	}
	for i := range fixtures {
		require.NoError(t, repo.Create(ctx, &fixtures[i]))
	}

	items, total, err := repo.List(ctx, EssayFilter{UserID: 1})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Equal(t, "c", items[0].Content, "newest first by default")
	require.Equal(t, "Saúde", items[0].Theme.Title)

	evaluated := true
	items, total, err = repo.List(ctx, EssayFilter{UserID: 1, IsEvaluated: &evaluated, OrderBy: "total_score", OrderDirection: "desc"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, 920, *items[0].TotalScore)

	items, _, err = repo.List(ctx, EssayFilter{UserID: 1, OrderBy: "total_score", OrderDirection: "asc"})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, []string{items[0].Content, items[1].Content, items[2].Content})

	themeID := health.ID
	items, total, err = repo.List(ctx, EssayFilter{UserID: 1, ThemeID: &themeID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, items, 1)

	items, total, err = repo.List(ctx, EssayFilter{UserID: 1, Limit: 1, Offset: 1, OrderBy: "created_at", OrderDirection: "asc"})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	require.Equal(t, "b", items[0].Content)

	items, _, err = repo.List(ctx, EssayFilter{UserID: 1, OrderBy: "content; DROP TABLE essays"})
	require.NoError(t, err)
	require.Len(t, items, 3)
}

func TestEssayRepositoryStats(t *testing.T) {
	db, theme, _ := seedEssayFixtures(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	empty, err := repo.Stats(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, empty.Total)
	require.Nil(t, empty.AvgTotal)

	first := time.Now().Add(-time.Hour)
	second := time.Now()
	fixtures := []models.Essay{
		{UserID: 1, ThemeID: theme.ID, Content: "a", IsEvaluated: true, TotalScore: intPtr(600), ScoreC1: intPtr(120), ScoreC2: intPtr(120), ScoreC3: intPtr(120), ScoreC4: intPtr(120), ScoreC5: intPtr(120), EvaluatedAt: &first},
		{UserID: 1, ThemeID: theme.ID, Content: "b", IsEvaluated: true, TotalScore: intPtr(800), ScoreC1: intPtr(160), ScoreC2: intPtr(160), ScoreC3: intPtr(160), ScoreC4: intPtr(160), ScoreC5: intPtr(160), EvaluatedAt: &second},
		{UserID: 1, ThemeID: theme.ID, Content: "c"},
		{UserID: 2, ThemeID: theme.ID, Content: "d", IsEvaluated: true, TotalScore: intPtr(1000), EvaluatedAt: &second},
	}
	for i := range fixtures {
		require.NoError(t, repo.Create(ctx, &fixtures[i]))
	}

	stats, err := repo.Stats(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(2), stats.Evaluated)
	require.NotNil(t, stats.AvgTotal)
	require.InDelta(t, 700, *stats.AvgTotal, 0.001)
	require.InDelta(t, 140, *stats.AvgC3, 0.001)

	recent, err := repo.RecentEvaluated(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, 800, *recent[0].TotalScore)
}
