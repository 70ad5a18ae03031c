package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/event"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/tracing"
)

// SubstituteInput identifies a missing line and the alternative chosen for it.
type SubstituteInput struct {
	MissingItemID string              `json:"missing_item_id" validate:"notblank"`
	ItemID        string              `json:"item_id" validate:"notblank"`
	ItemName      string              `json:"item_name" validate:"notblank"`
	Price         decimal.NullDecimal `json:"price"`
	ImageURL      string              `json:"image_url"`
}

// ComparisonService prices the active cart across selected stores and keeps
// the last result in the session cache, where alternatives can be patched in
// without another backend round trip.
type ComparisonService struct {
	backend   ComparisonBackend
	carts     *CartService
	selection repository.SelectionRepository
	cache     repository.ComparisonCache
	producer  *event.Producer
	logger    *slog.Logger
	now       func() time.Time
}

// NewComparisonService creates a new comparison service.
func NewComparisonService(
	backend ComparisonBackend,
	carts *CartService,
	selection repository.SelectionRepository,
	cache repository.ComparisonCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ComparisonService {
	return &ComparisonService{
		backend:   backend,
		carts:     carts,
		selection: selection,
		cache:     cache,
		producer:  producer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CompareSelection compares the user's active cart across the stores selected
// in the session.
func (s *ComparisonService) CompareSelection(ctx context.Context, sessionID string, userID int64) (*domain.ComparisonResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	sel, err := s.selection.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get store selection: %w", err)
	}
	return s.CompareStores(ctx, sessionID, userID, sel.IDs())
}

// CompareStores compares the user's active cart across storeIDs. The store
// list and the cart are checked before anything is sent to the backend.
func (s *ComparisonService) CompareStores(ctx context.Context, sessionID string, userID int64, storeIDs []int64) (*domain.ComparisonResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if userID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}

	storeIDs = uniqueIDs(storeIDs)
	if len(storeIDs) == 0 {
		return nil, apperrors.InvalidInput("select at least one store to compare")
	}
	if len(storeIDs) > domain.MaxSelectedStores {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d stores can be compared", domain.MaxSelectedStores))
	}

	snap, err := s.carts.ActiveCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snap.State() == domain.StateNoActiveCart {
		if snap, err = s.carts.Refresh(ctx, userID); err != nil {
			return nil, err
		}
	}
	if snap.IsEmpty() {
		return nil, apperrors.InvalidInput("the cart is empty")
	}

	return s.Compare(ctx, sessionID, userID, snap.CartID, storeIDs)
}

// Compare sends one comparison request and stores the result as the
// session's comparison, replacing any previous one in full. It does not check
// its inputs; the backend is the authority on what can be compared.
func (s *ComparisonService) Compare(ctx context.Context, sessionID string, userID, cartID int64, storeIDs []int64) (cmp *domain.ComparisonResult, err error) {
	ctx, span := tracing.Start(ctx, tracer, "ComparisonService.Compare",
		attribute.Int64("user.id", userID),
		attribute.Int64("cart.id", cartID),
		attribute.Int64Slice("store.ids", storeIDs),
	)
	defer func() {
		comparisons.WithLabelValues(outcome(err)).Inc()
		tracing.End(span, err)
	}()

	results, err := s.backend.Compare(ctx, userID, cartID, storeIDs)
	if err != nil {
		return nil, fmt.Errorf("compare cart: %w", err)
	}

	cmp = domain.NewComparisonResult(userID, cartID, storeIDs, results, s.now())
	if err := s.cache.Save(ctx, sessionID, cmp); err != nil {
		s.logger.ErrorContext(ctx, "failed to cache comparison result",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishComparisonCompleted(ctx, cmp); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comparison.completed event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "comparison completed",
		slog.String("comparison_id", cmp.ID.String()),
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", cartID),
		slog.Int("stores", len(cmp.Results)),
	)
	return cmp, nil
}

// Current returns the session's cached comparison. A result computed for
// another user reads as missing.
func (s *ComparisonService) Current(ctx context.Context, sessionID string, userID int64) (*domain.ComparisonResult, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	return s.ownedComparison(ctx, sessionID, userID)
}

// ownedComparison loads the session's cached result and hides it from any
// user other than the one it was computed for.
func (s *ComparisonService) ownedComparison(ctx context.Context, sessionID string, userID int64) (*domain.ComparisonResult, error) {
	cmp, err := s.cache.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("comparison", sessionID)
		}
		return nil, fmt.Errorf("get comparison: %w", err)
	}
	if cmp.UserID != userID {
		return nil, apperrors.NotFound("comparison", sessionID)
	}
	return cmp, nil
}

// FindAlternatives lists items storeID offers in place of itemID.
func (s *ComparisonService) FindAlternatives(ctx context.Context, storeID int64, itemID string) ([]domain.Alternative, error) {
	itemID = strings.TrimSpace(itemID)
	if storeID <= 0 {
		return nil, apperrors.InvalidInput("store id is required")
	}
	if itemID == "" {
		return nil, apperrors.InvalidInput("item id is required")
	}

	alts, err := s.backend.Alternatives(ctx, storeID, itemID)
	if err != nil {
		return nil, fmt.Errorf("find alternatives: %w", err)
	}
	return alts, nil
}

// Substitute replaces a missing line of one store's result with the chosen
// alternative and adds its price times the line quantity to that store's
// total. The patch only exists in the session cache; the cart is untouched.
func (s *ComparisonService) Substitute(ctx context.Context, sessionID string, userID, storeID int64, input SubstituteInput) (result *domain.StoreResult, err error) {
	ctx, span := tracing.Start(ctx, tracer, "ComparisonService.Substitute",
		attribute.Int64("store.id", storeID),
		attribute.String("item.id", input.MissingItemID),
	)
	defer func() {
		comparisonSubstitutions.WithLabelValues(outcome(err)).Inc()
		tracing.End(span, err)
	}()

	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	cmp, err := s.ownedComparison(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	choice := domain.AlternativeChoice{
		ItemID:   strings.TrimSpace(input.ItemID),
		ItemName: input.ItemName,
		Price:    input.Price,
		ImageURL: input.ImageURL,
	}
	result, err = cmp.Substitute(storeID, strings.TrimSpace(input.MissingItemID), choice, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.cache.Save(ctx, sessionID, cmp); err != nil {
		return nil, fmt.Errorf("save comparison: %w", err)
	}

	sub := result.Substitutions[len(result.Substitutions)-1]
	if err := s.producer.PublishComparisonPatched(ctx, cmp, result, sub); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish comparison.patched event",
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "alternative substituted",
		slog.String("comparison_id", cmp.ID.String()),
		slog.Int64("store_id", storeID),
		slog.String("missing_item_id", sub.OriginalItemID),
		slog.String("item_id", sub.ItemID),
		slog.String("cart_price", result.CartPrice.String()),
	)
	return result, nil
}

// uniqueIDs drops duplicates and non-positive ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
