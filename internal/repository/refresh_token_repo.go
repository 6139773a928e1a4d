package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/redaia-api/internal/models"
)

// RefreshTokenRepository persists hashed refresh tokens.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetActiveByHash(ctx context.Context, hash string, now time.Time) (models.RefreshToken, error)
	Rotate(ctx context.Context, id uint, next *models.RefreshToken, now time.Time) error
	Revoke(ctx context.Context, id uint, now time.Time) error
	RevokeAllForUser(ctx context.Context, userID uint, now time.Time) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository constructs a refresh token repository.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

// GetActiveByHash returns the token only while it is neither revoked nor expired.
func (r *refreshTokenRepository) GetActiveByHash(ctx context.Context, hash string, now time.Time) (models.RefreshToken, error) {
	var token models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token_hash = ?", hash).
		Where("revoked_at IS NULL").
		Where("expires_at > ?", now).
		First(&token).Error
	if err != nil {
		return models.RefreshToken{}, err
	}
	return token, nil
}

// Rotate revokes id and stores next in one transaction. A token that was
// revoked concurrently yields gorm.ErrRecordNotFound and nothing is stored.
func (r *refreshTokenRepository) Rotate(ctx context.Context, id uint, next *models.RefreshToken, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&models.RefreshToken{}).
			Where("id = ?", id).
			Where("revoked_at IS NULL").
			Update("revoked_at", now)
		if update.Error != nil {
			return update.Error
		}

		if update.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Create(next).Error
	})
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, id uint, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Where("revoked_at IS NULL").
		Update("revoked_at", now).Error
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uint, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ?", userID).
		Where("revoked_at IS NULL").
		Update("revoked_at", now).Error
}
