package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/redaia-api/internal/models"
)

// EssayFilter narrows essay list queries. UserID is always applied.
type EssayFilter struct {
	UserID         uint
	ThemeID        *uint
	IsEvaluated    *bool
	OrderBy        string
	OrderDirection string
	Limit          int
	Offset         int
}

// EssayStats aggregates a user's essays. Averages are nil when no essay
// has been evaluated.
type EssayStats struct {
	Total     int64
	Evaluated int64
	AvgTotal  *float64
	AvgC1     *float64
	AvgC2     *float64
	AvgC3     *float64
	AvgC4     *float64
	AvgC5     *float64
}

// EssayRepository persists essays. Every read and write is scoped to the
// owning user; a foreign essay behaves as a missing one.
type EssayRepository interface {
	Create(ctx context.Context, essay *models.Essay) error
	GetByIDForUser(ctx context.Context, id, userID uint) (models.Essay, error)
	List(ctx context.Context, filter EssayFilter) ([]models.Essay, int64, error)
	UpdateFields(ctx context.Context, id, userID uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id, userID uint) error
	Stats(ctx context.Context, userID uint) (EssayStats, error)
	RecentEvaluated(ctx context.Context, userID uint, limit int) ([]models.Essay, error)
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository constructs an essay repository.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) Create(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(essay).Error
}

func (r *essayRepository) GetByIDForUser(ctx context.Context, id, userID uint) (models.Essay, error) {
	var essay models.Essay
	err := r.db.WithContext(ctx).
		Preload("Theme").
		Where("id = ? AND user_id = ?", id, userID).
		First(&essay).Error
	if err != nil {
		return models.Essay{}, err
	}
	return essay, nil
}

func (r *essayRepository) List(ctx context.Context, filter EssayFilter) ([]models.Essay, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Essay{}).Where("user_id = ?", filter.UserID)
	if filter.ThemeID != nil {
		query = query.Where("theme_id = ?", *filter.ThemeID)
	}
	if filter.IsEvaluated != nil {
		query = query.Where("is_evaluated = ?", *filter.IsEvaluated)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	// unscored essays sort last in either direction
	if strings.EqualFold(filter.OrderBy, "total_score") {
		query = query.Order("total_score IS NULL")
	}

	var essays []models.Essay
	err := query.
		Preload("Theme").
		Order(essayOrder(filter.OrderBy, filter.OrderDirection)).
		Order("id DESC").
		Find(&essays).Error
	if err != nil {
		return nil, 0, err
	}
	return essays, total, nil
}

// essayOrder whitelists the sortable columns.
func essayOrder(column, direction string) clause.OrderByColumn {
	name := "created_at"
	if strings.EqualFold(column, "total_score") {
		name = "total_score"
	}
	return clause.OrderByColumn{
		Column: clause.Column{Name: name},
		Desc:   !strings.EqualFold(direction, "asc"),
	}
}

func (r *essayRepository) UpdateFields(ctx context.Context, id, userID uint, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *essayRepository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Essay{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *essayRepository) Stats(ctx context.Context, userID uint) (EssayStats, error) {
	var stats EssayStats
	if err := r.db.WithContext(ctx).Model(&models.Essay{}).Where("user_id = ?", userID).Count(&stats.Total).Error; err != nil {
		return EssayStats{}, err
	}

	var row struct {
		Evaluated int64
		AvgTotal  *float64
		AvgC1     *float64
		AvgC2     *float64
		AvgC3     *float64
		AvgC4     *float64
		AvgC5     *float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Essay{}).
		Select(`COUNT(*) AS evaluated,
			AVG(total_score) AS avg_total,
			AVG(score_c1) AS avg_c1,
			AVG(score_c2) AS avg_c2,
			AVG(score_c3) AS avg_c3,
			AVG(score_c4) AS avg_c4,
			AVG(score_c5) AS avg_c5`).
		Where("user_id = ? AND is_evaluated = ?", userID, true).
		Scan(&row).Error
	if err != nil {
		return EssayStats{}, err
	}

	stats.Evaluated = row.Evaluated
	stats.AvgTotal = row.AvgTotal
	stats.AvgC1 = row.AvgC1
	stats.AvgC2 = row.AvgC2
	stats.AvgC3 = row.AvgC3
	stats.AvgC4 = row.AvgC4
	stats.AvgC5 = row.AvgC5
	return stats, nil
}

func (r *essayRepository) RecentEvaluated(ctx context.Context, userID uint, limit int) ([]models.Essay, error) {
	if limit <= 0 {
		limit = 10
	}

	var essays []models.Essay
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_evaluated = ?", userID, true).
		Order("evaluated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&essays).Error
	if err != nil {
		return nil, err
	}
	return essays, nil
}
