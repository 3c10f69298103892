package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"postboard/internal/auth"
	apperrors "postboard/internal/errors"
	"postboard/internal/metrics"
	"postboard/internal/model"
	"postboard/internal/repository"
)

// AuthService handles registration, login and token-backed identity lookups.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	CurrentUser(ctx context.Context, userID uint) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher auth.PasswordHasher, jwtService *auth.JWTService) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
	}
}

// Register creates a new user with a hashed password.
//
// The email pre-check and the insert are not atomic; a concurrent
// registration for the same email is caught by the unique index and
// reported as ErrEmailTaken as well.
func (s *authService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if name == "" || email == "" || password == "" {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultValidation).Inc()
		return nil, apperrors.ErrMissingFields
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultConflict).Inc()
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, apperrors.Persistence("check user existence", err)
	}

	hashedPassword, err := s.hasher.Hash(password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.RegistrationsTotal.WithLabelValues(metrics.ResultConflict).Inc()
			return nil, apperrors.ErrEmailTaken
		}
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultError).Inc()
		return nil, apperrors.Persistence("create user", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	return user, nil
}

// Login verifies the credentials and returns a signed bearer token carrying
// the user id. Unknown email and wrong password both return
// ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalidCredentials).Inc()
		return "", apperrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalidCredentials).Inc()
			return "", apperrors.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		return "", apperrors.Persistence("find user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultInvalidCredentials).Inc()
		return "", apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(metrics.ResultError).Inc()
		return "", fmt.Errorf("generate token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.TokensIssued.Inc()
	return token, nil
}

// CurrentUser loads the user a validated token refers to.
func (s *authService) CurrentUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Persistence("find user", err)
	}
	return user, nil
}
