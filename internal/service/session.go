package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// VisibilityInput is a page visibility change reported by a browsing session.
type VisibilityInput struct {
	State      domain.VisibilityState `json:"state" validate:"required,oneof=visible hidden"`
	Navigation domain.NavigationType  `json:"navigation" validate:"required,oneof=navigate reload back_forward prerender"`
}

// SessionService applies session lifecycle signals to the comparison cache.
type SessionService struct {
	cache  repository.ComparisonCache
	logger *slog.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(cache repository.ComparisonCache, logger *slog.Logger) *SessionService {
	return &SessionService{cache: cache, logger: logger}
}

// HandleVisibility drops the cached comparison when the page was hidden by
// navigating away. A reload keeps it, and so does a signal from a user other
// than the one the comparison belongs to. It reports whether the cache was
// dropped.
func (s *SessionService) HandleVisibility(ctx context.Context, sessionID string, userID int64, input VisibilityInput) (bool, error) {
	if sessionID == "" {
		return false, apperrors.InvalidInput("session id is required")
	}
	if input.State != domain.VisibilityVisible && input.State != domain.VisibilityHidden {
		return false, apperrors.InvalidInput("unknown visibility state " + string(input.State))
	}
	if !input.Navigation.Valid() {
		return false, apperrors.InvalidInput("unknown navigation type " + string(input.Navigation))
	}

	if !domain.ShouldInvalidateComparison(input.State, input.Navigation) {
		return false, nil
	}

	cmp, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get comparison: %w", err)
	}
	if cmp.UserID != userID {
		return false, nil
	}

	if err := s.cache.Delete(ctx, sessionID); err != nil {
		return false, fmt.Errorf("invalidate comparison cache: %w", err)
	}
	sessionCacheInvalidations.WithLabelValues("navigated_away").Inc()

	s.logger.InfoContext(ctx, "session comparison cache invalidated",
		slog.String("session_id", sessionID),
		slog.String("navigation", string(input.Navigation)),
	)
	return true, nil
}
