package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/middleware"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/validator"
)

// AuthHandler passes login and logout through to the price backend.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

type loginView struct {
	SessionToken string          `json:"session_token"`
	User         domain.Identity `json:"user"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	identity, err := h.service.Login(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, loginView{SessionToken: identity.SessionToken, User: *identity})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.SessionTokenFromContext(r.Context())); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResolveToken adapts the auth service to the Auth middleware.
func ResolveToken(svc *service.AuthService) middleware.TokenResolver {
	return func(ctx context.Context, token string) (int64, error) {
		identity, err := svc.Resolve(ctx, token)
		if err != nil {
			return 0, err
		}
		return identity.UserID, nil
	}
}
