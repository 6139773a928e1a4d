package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/redaia-api/internal/models"
)

// ThemeRepository provides access to essay themes.
type ThemeRepository interface {
	ListActive(ctx context.Context) ([]models.Theme, error)
	GetActiveByID(ctx context.Context, id uint) (models.Theme, error)
	RandomActive(ctx context.Context) (models.Theme, error)
	Count(ctx context.Context) (int64, error)
	UpsertBatch(ctx context.Context, themes []models.Theme) (int64, error)
}

type themeRepository struct {
	db *gorm.DB
}

// NewThemeRepository constructs a theme repository.
func NewThemeRepository(db *gorm.DB) ThemeRepository {
	return &themeRepository{db: db}
}

func (r *themeRepository) ListActive(ctx context.Context) ([]models.Theme, error) {
	var themes []models.Theme
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("title ASC").Find(&themes).Error; err != nil {
		return nil, err
	}
	return themes, nil
}

func (r *themeRepository) GetActiveByID(ctx context.Context, id uint) (models.Theme, error) {
	var theme models.Theme
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&theme).Error; err != nil {
		return models.Theme{}, err
	}
	return theme, nil
}

// RandomActive picks an active theme uniformly. RANDOM() is understood by
// both postgres and sqlite.
func (r *themeRepository) RandomActive(ctx context.Context) (models.Theme, error) {
	var theme models.Theme
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("RANDOM()").Take(&theme).Error; err != nil {
		return models.Theme{}, err
	}
	return theme, nil
}

func (r *themeRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Theme{}).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpsertBatch inserts themes keyed by title, leaving existing rows alone.
func (r *themeRepository) UpsertBatch(ctx context.Context, themes []models.Theme) (int64, error) {
	if len(themes) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoNothing: true,
	}).Create(&themes)
	return result.RowsAffected, result.Error
}
