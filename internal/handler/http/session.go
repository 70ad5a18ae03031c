package http

import (
	"log/slog"
	"net/http"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/service"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/validator"
)

// SessionHandler receives lifecycle signals from browsing sessions.
type SessionHandler struct {
	service *service.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, logger: logger}
}

// Visibility handles POST /api/v1/session/visibility
func (h *SessionHandler) Visibility(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var input service.VisibilityInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	invalidated, err := h.service.HandleVisibility(r.Context(), sessionID, userID, input)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"comparison_invalidated": invalidated})
}
