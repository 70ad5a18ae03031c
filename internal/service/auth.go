package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// LoginInput holds shopper credentials forwarded to the backend.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService passes login and logout through to the backend and keeps a
// durable record of which user each session token belongs to.
type AuthService struct {
	backend    AuthBackend
	identities repository.IdentityRepository
	logger     *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(backend AuthBackend, identities repository.IdentityRepository, logger *slog.Logger) *AuthService {
	return &AuthService{backend: backend, identities: identities, logger: logger}
}

// Login authenticates against the backend and stores the issued identity.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.Identity, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.InvalidInput("email and password are required")
	}

	identity, err := s.backend.Login(ctx, email, input.Password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := s.identities.Save(ctx, identity); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", identity.UserID))
	return identity, nil
}

// Logout revokes the token on the backend and forgets it locally. The local
// record is dropped even when the backend call fails.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.Unauthorized("session token is required")
	}

	backendErr := s.backend.Logout(ctx, token)
	if backendErr != nil && !errors.Is(backendErr, apperrors.ErrUnauthorized) {
		s.logger.WarnContext(ctx, "backend logout failed", slog.String("error", backendErr.Error()))
	}

	if err := s.identities.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// Resolve returns the identity a session token was issued for.
func (s *AuthService) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("session token is required")
	}
	identity, err := s.identities.GetByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return identity, nil
}
