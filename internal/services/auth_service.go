package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"matchday/internal/auth"
	"matchday/internal/models"
	"matchday/internal/repository"
	"matchday/internal/validation"

	"github.com/rs/zerolog"
)

const minPasswordLen = 8

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{3,150}$`)

// AuthService handles registration and login
type AuthService struct {
	repo *repository.Repository
}

// NewAuthService creates a new AuthService
func NewAuthService(repo *repository.Repository) *AuthService {
	return &AuthService{repo: repo}
}

// Register creates a user and returns it with a fresh token.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return nil, "", &validation.FieldError{Field: "username", Message: "3-150 characters: letters, digits and @/./+/-/_ only"}
	}
	if len(password) < minPasswordLen {
		return nil, "", &validation.FieldError{Field: "password", Message: "must be at least 8 characters"}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", internal(ctx, "hash password", err)
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		var cv *repository.ConstraintViolation
		if errors.As(err, &cv) && cv.On("username") {
			return nil, "", &validation.FieldError{Field: "username", Message: "a user with that username already exists", Reason: validation.Duplicate}
		}
		return nil, "", internal(ctx, "create user", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", internal(ctx, "generate token", err)
	}

	zerolog.Ctx(ctx).Info().Uint("user_id", user.ID).Msg("user registered")
	return user, token, nil
}

// Login checks credentials and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", internal(ctx, "load user", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", internal(ctx, "check password", err)
	}

	token, err := auth.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", internal(ctx, "generate token", err)
	}
	return user, token, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, internal(ctx, "load user", err)
	}
	return user, nil
}
