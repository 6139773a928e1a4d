package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/redaia-api/internal/dto"
	"github.com/noah-isme/redaia-api/internal/models"
	"github.com/noah-isme/redaia-api/internal/repository"
)

// PasswordCost is the bcrypt work factor for stored passwords.
const PasswordCost = 12

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned when the token subject no longer exists.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRefreshToken is returned for an unknown, revoked or expired refresh token.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrIncorrectPassword is returned when a password confirmation does not match.
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrNameBlank is returned when a profile update sets a blank name.
	ErrNameBlank = errors.New("name must not be blank")
)

// AuthService manages accounts and their token pairs.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uint, payload dto.UpdateProfileRequest) (dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userID uint, payload dto.DeleteAccountRequest) error
}

type authService struct {
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	validator  *validator.Validate
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	cost       int
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, tokens repository.RefreshTokenRepository, validate *validator.Validate, secret string, accessTTL, refreshTTL time.Duration, logger zerolog.Logger) AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}

	return &authService{
		users:      users,
		tokens:     tokens,
		validator:  validate,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		cost:       PasswordCost,
		logger:     logger.With().Str("component", "auth_service").Logger(),
		now:        time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	email := normalizeEmail(payload.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.cost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        email,
		PasswordHash: string(hash),
		School:       trimOptional(payload.School),
		Grade:        trimOptional(payload.Grade),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return s.issue(ctx, user)
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(payload.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Debug().Uint("user_id", user.ID).Msg("password mismatch")
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// Refresh exchanges a live refresh token for a new pair. The presented token
// is revoked; replaying it fails.
func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	now := s.now()
	current, err := s.tokens.GetActiveByHash(ctx, hashRefreshToken(payload.RefreshToken), now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidRefreshToken
		}
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidRefreshToken
		}
		return dto.AuthResponse{}, err
	}

	plain, next := s.newRefreshToken(user.ID, now)
	if err := s.tokens.Rotate(ctx, current.ID, &next, now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Uint("user_id", user.ID).Msg("refresh token replayed")
			return dto.AuthResponse{}, ErrInvalidRefreshToken
		}
		return dto.AuthResponse{}, err
	}

	return s.respond(user, plain, next, now)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}

	now := s.now()
	current, err := s.tokens.GetActiveByHash(ctx, hashRefreshToken(refreshToken), now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := s.tokens.Revoke(ctx, current.ID, now); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", current.UserID).Msg("refresh token revoked")
	return nil
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, payload dto.UpdateProfileRequest) (dto.UserResponse, error) {
	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			return dto.UserResponse{}, ErrNameBlank
		}
		payload.Name = &name
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	fields := map[string]interface{}{}
	if payload.Name != nil {
		fields["name"] = *payload.Name
	}
	if payload.School != nil {
		fields["school"] = trimOptional(payload.School)
	}
	if payload.Grade != nil {
		fields["grade"] = trimOptional(payload.Grade)
	}

	if len(fields) > 0 {
		if err := s.users.UpdateFields(ctx, userID, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.UserResponse{}, ErrUserNotFound
			}
			return dto.UserResponse{}, err
		}
		s.logger.Info().Uint("user_id", userID).Int("fields", len(fields)).Msg("profile updated")
	}

	return s.Profile(ctx, userID)
}

// ChangePassword also revokes every refresh token of the user.
func (s *authService) ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.confirmPassword(ctx, userID, payload.CurrentPassword)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), s.cost)
	if err != nil {
		return err
	}

	if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}

	if err := s.tokens.RevokeAllForUser(ctx, user.ID, s.now()); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("password changed")
	return nil
}

// DeleteAccount removes the user with their essays and refresh tokens.
func (s *authService) DeleteAccount(ctx context.Context, userID uint, payload dto.DeleteAccountRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.confirmPassword(ctx, userID, payload.Password)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("account deleted")
	return nil
}

func (s *authService) confirmPassword(ctx context.Context, userID uint, password string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrIncorrectPassword
	}
	return user, nil
}

func (s *authService) issue(ctx context.Context, user models.User) (dto.AuthResponse, error) {
	now := s.now()
	plain, refresh := s.newRefreshToken(user.ID, now)
	if err := s.tokens.Create(ctx, &refresh); err != nil {
		return dto.AuthResponse{}, err
	}
	return s.respond(user, plain, refresh, now)
}

func (s *authService) respond(user models.User, plainRefresh string, refresh models.RefreshToken, now time.Time) (dto.AuthResponse, error) {
	expiresAt := now.Add(s.accessTTL)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{
		Token:            token,
		TokenType:        "Bearer",
		ExpiresAt:        expiresAt.UTC(),
		RefreshToken:     plainRefresh,
		RefreshExpiresAt: refresh.ExpiresAt.UTC(),
		User:             dto.NewUserResponse(user),
	}, nil
}

func (s *authService) newRefreshToken(userID uint, now time.Time) (string, models.RefreshToken) {
	plain := uuid.NewString()
	return plain, models.RefreshToken{
		UserID:    userID,
		TokenHash: hashRefreshToken(plain),
		ExpiresAt: now.Add(s.refreshTTL),
	}
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
