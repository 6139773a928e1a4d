package dto

import (
	"time"

	"github.com/noah-isme/redaia-api/internal/models"
)

// RegisterRequest creates a student account.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	School   *string `json:"school" validate:"omitempty,max=200"`
	Grade    *string `json:"grade" validate:"omitempty,max=50"`
}

// LoginRequest exchanges credentials for an access token.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	School    *string   `json:"school"`
	Grade     *string   `json:"grade"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse converts a user model into its API representation.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Name:      model.Name,
		Email:     model.Email,
		School:    model.School,
		Grade:     model.Grade,
		CreatedAt: model.CreatedAt,
	}
}

// RefreshRequest carries an opaque refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required,max=128"`
}

// UpdateProfileRequest patches the profile. Omitted fields are kept; an
// empty school or grade clears it.
type UpdateProfileRequest struct {
	Name   *string `json:"name" validate:"omitnil,min=2,max=120"`
	School *string `json:"school" validate:"omitnil,max=200"`
	Grade  *string `json:"grade" validate:"omitnil,max=50"`
}

// ChangePasswordRequest replaces the password after checking the current one.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// DeleteAccountRequest confirms account removal with the password.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the token pair and the authenticated user.
type AuthResponse struct {
	Token            string       `json:"token"`
	TokenType        string       `json:"token_type"`
	ExpiresAt        time.Time    `json:"expires_at"`
	RefreshToken     string       `json:"refresh_token"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             UserResponse `json:"user"`
}
