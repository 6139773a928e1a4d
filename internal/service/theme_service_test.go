package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/redaia-api/internal/models"
	"github.com/noah-isme/redaia-api/internal/repository"
)

func TestThemeServiceSeedIsIdempotent(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewThemeService(repository.NewThemeRepository(db), zerolog.Nop())
	ctx := context.Background()

	inserted, err := svc.Seed(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(20), inserted)

	inserted, err = svc.Seed(ctx)
	require.NoError(t, err)
	require.Zero(t, inserted)

	themes, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, themes, 20)
	require.Equal(t, "Acesso à justiça e direitos humanos", themes[0].Title)
}

func TestThemeServiceGetAndRandom(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewThemeService(repository.NewThemeRepository(db), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Random(ctx)
	require.ErrorIs(t, err, ErrNoActiveThemes)

	theme := models.Theme{Title: "Tecnologia e sociedade", Description: "d", Category: "Tecnologia"}
	require.NoError(t, db.Create(&theme).Error)

	found, err := svc.Get(ctx, theme.ID)
	require.NoError(t, err)
	require.Equal(t, "Tecnologia", found.Category)

	random, err := svc.Random(ctx)
	require.NoError(t, err)
	require.Equal(t, theme.ID, random.ID)

	require.NoError(t, db.Model(&theme).Update("is_active", false).Error)
	_, err = svc.Get(ctx, theme.ID)
	require.ErrorIs(t, err, ErrThemeNotFound)
	_, err = svc.Get(ctx, 404)
	require.ErrorIs(t, err, ErrThemeNotFound)
}

func TestDefaultThemesAreUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, theme := range DefaultThemes() {
		require.NotEmpty(t, theme.Description)
		require.NotEmpty(t, theme.Category)
		_, dup := seen[theme.Title]
		require.False(t, dup, theme.Title)
		seen[theme.Title] = struct{}{}
	}
	require.Len(t, seen, 20)
}
