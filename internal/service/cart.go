package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/event"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/tracing"
)

var tracer = tracing.Tracer("github.com/yehuditohana/Supermarket-Price-Comparer/internal/service")

// AddItemInput holds the parameters for adding an item to the active cart.
type AddItemInput struct {
	ItemID   string `json:"item_id" validate:"notblank"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

// ArchiveResult is the outcome of archiving the active cart: the cart that
// was archived and the fresh active cart that replaced it.
type ArchiveResult struct {
	Archived domain.Cart          `json:"archived"`
	Active   *domain.CartSnapshot `json:"active"`
}

// CartService owns the single active cart of each user.
//
// Every mutation is followed by a full re-fetch of the active cart from the
// backend, so the stored snapshot always reflects the latest server state and
// price ranges are never approximated locally. Failures are recorded on the
// snapshot as a dismissable error and never clear its lines.
type CartService struct {
	backend   CartBackend
	activeIDs repository.ActiveCartCache
	snapshots repository.CartSnapshotRepository
	producer  *event.Producer
	logger    *slog.Logger
	now       func() time.Time

	// resolving converges concurrent active cart lookups of one user.
	resolving singleflight.Group
	// inflight coalesces identical add/remove requests still in progress.
	inflight singleflight.Group
}

// NewCartService creates a new cart service.
func NewCartService(
	backend CartBackend,
	activeIDs repository.ActiveCartCache,
	snapshots repository.CartSnapshotRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		backend:   backend,
		activeIDs: activeIDs,
		snapshots: snapshots,
		producer:  producer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ResolveActiveCartID returns the cached active cart id, asking the backend
// when none is cached. The backend creates an active cart on demand, so
// concurrent callers all converge on the same server-authoritative id.
func (s *CartService) ResolveActiveCartID(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, apperrors.InvalidInput("user id is required")
	}

	id, err := s.activeIDs.Get(ctx, userID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.WarnContext(ctx, "active cart cache read failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	v, err, _ := s.resolving.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		// Shared with every waiter, so one caller's cancellation must not
		// fail the others.
		ctx := context.WithoutCancel(ctx)
		id, err := s.backend.ActiveCartID(ctx, userID)
		if err != nil {
			return int64(0), err
		}
		if err := s.activeIDs.Set(ctx, userID, id); err != nil {
			s.logger.WarnContext(ctx, "failed to cache active cart id",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return id, nil
	})
	if err != nil {
		return 0, fmt.Errorf("resolve active cart: %w", err)
	}
	return v.(int64), nil
}

// ActiveCart returns the stored snapshot of the user's active cart, loading
// it from the backend when none is stored. A stored error is returned as part
// of the snapshot. A stored snapshot without a cart only carries an earlier
// failure: it is loaded again, keeping that error until it is dismissed, and
// returned as is when loading fails too.
func (s *CartService) ActiveCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	if userID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}

	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get cart snapshot: %w", err)
		}
		return s.Refresh(ctx, userID)
	}
	if snap.State() == domain.StateActiveCartLoaded {
		return snap, nil
	}

	fresh, err := s.Refresh(ctx, userID)
	if err != nil {
		snap.Error = failureMessage("refresh", err)
		return snap, nil
	}
	if snap.Error != "" {
		fresh.Error = snap.Error
		if err := s.snapshots.Save(ctx, userID, fresh); err != nil {
			s.logger.WarnContext(ctx, "failed to keep cart error",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return fresh, nil
}

// Refresh re-fetches the active cart from the backend and replaces the stored
// snapshot. A successful refresh clears any stored error.
func (s *CartService) Refresh(ctx context.Context, userID int64) (snap *domain.CartSnapshot, err error) {
	ctx, span := tracing.Start(ctx, tracer, "CartService.Refresh", attribute.Int64("user.id", userID))
	defer func() { tracing.End(span, err) }()

	if userID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}

	snap, err = s.refresh(ctx, userID)
	if err != nil {
		s.recordFailure(ctx, userID, "refresh", err)
		return nil, err
	}
	return snap, nil
}

func (s *CartService) refresh(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	cartID, err := s.ResolveActiveCartID(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines, err := s.backend.ActiveCartItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active cart items: %w", err)
	}

	snap := &domain.CartSnapshot{
		CartID:      cartID,
		Lines:       domain.SortLines(lines),
		RefreshedAt: s.now(),
	}
	if err := s.snapshots.Save(ctx, userID, snap); err != nil {
		return nil, fmt.Errorf("save cart snapshot: %w", err)
	}
	return snap, nil
}

// AddItem adds quantity units of an item to the active cart.
func (s *CartService) AddItem(ctx context.Context, userID int64, input AddItemInput) (*domain.CartSnapshot, error) {
	if err := validateLine(userID, input.ItemID, input.Quantity); err != nil {
		return nil, err
	}
	itemID := strings.TrimSpace(input.ItemID)

	snap, err := s.mutateLine(ctx, "add", userID, itemID, input.Quantity, func(ctx context.Context, cartID int64) error {
		return s.backend.AddItem(ctx, cartID, itemID, input.Quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item added to cart",
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", snap.CartID),
		slog.String("item_id", itemID),
		slog.Int("quantity", input.Quantity),
	)
	return snap, nil
}

// RemoveItem removes quantity units of an item. Removing the full quantity
// deletes the line.
func (s *CartService) RemoveItem(ctx context.Context, userID int64, itemID string, quantity int) (*domain.CartSnapshot, error) {
	if err := validateLine(userID, itemID, quantity); err != nil {
		return nil, err
	}
	itemID = strings.TrimSpace(itemID)

	snap, err := s.mutateLine(ctx, "remove", userID, itemID, quantity, func(ctx context.Context, cartID int64) error {
		return s.backend.RemoveItem(ctx, cartID, itemID, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", snap.CartID),
		slog.String("item_id", itemID),
		slog.Int("quantity", quantity),
	)
	return snap, nil
}

func validateLine(userID int64, itemID string, quantity int) error {
	if userID <= 0 {
		return apperrors.InvalidInput("user id is required")
	}
	if strings.TrimSpace(itemID) == "" {
		return apperrors.InvalidInput("item id is required")
	}
	if quantity <= 0 {
		return apperrors.InvalidInput("quantity must be greater than 0")
	}
	return nil
}

// mutateLine runs call against the active cart and refreshes the snapshot.
// Identical requests that overlap share one backend call and its result.
func (s *CartService) mutateLine(
	ctx context.Context,
	op string,
	userID int64,
	itemID string,
	quantity int,
	call func(ctx context.Context, cartID int64) error,
) (snap *domain.CartSnapshot, err error) {
	ctx, span := tracing.Start(ctx, tracer, "CartService."+op,
		attribute.Int64("user.id", userID),
		attribute.String("item.id", itemID),
		attribute.Int("quantity", quantity),
	)
	defer func() {
		cartMutations.WithLabelValues(op, outcome(err)).Inc()
		tracing.End(span, err)
	}()

	cartID, err := s.ResolveActiveCartID(ctx, userID)
	if err != nil {
		s.recordFailure(ctx, userID, op, err)
		return nil, err
	}

	key := fmt.Sprintf("%s:%d:%d:%s:%d", op, userID, cartID, itemID, quantity)
	v, err, shared := s.inflight.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		if err := call(ctx, cartID); err != nil {
			return nil, fmt.Errorf("%s item: %w", op, err)
		}
		snap, err := s.refresh(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.publish(ctx, "cart.updated", func(ctx context.Context) error {
			return s.producer.PublishCartUpdated(ctx, userID, snap)
		})
		return snap, nil
	})
	if shared {
		s.logger.DebugContext(ctx, "coalesced duplicate cart request", slog.String("key", key))
	}
	if err != nil {
		s.recordFailure(ctx, userID, op, err)
		// The cart may have been replaced elsewhere. The lines stay until a
		// refresh resolves the cart again.
		if errors.Is(err, apperrors.ErrNotFound) {
			s.dropActiveCartID(ctx, userID)
		}
		return nil, err
	}
	return v.(*domain.CartSnapshot), nil
}

// Clear deletes the active cart with all its lines and resolves a fresh one.
func (s *CartService) Clear(ctx context.Context, userID int64) (snap *domain.CartSnapshot, err error) {
	ctx, span := tracing.Start(ctx, tracer, "CartService.Clear", attribute.Int64("user.id", userID))
	defer func() {
		cartMutations.WithLabelValues("clear", outcome(err)).Inc()
		tracing.End(span, err)
	}()

	cartID, err := s.ResolveActiveCartID(ctx, userID)
	if err != nil {
		s.recordFailure(ctx, userID, "clear", err)
		return nil, err
	}

	if err := s.backend.DeleteCart(ctx, cartID); err != nil {
		err = fmt.Errorf("delete active cart: %w", err)
		s.recordFailure(ctx, userID, "clear", err)
		return nil, err
	}
	s.forgetActiveCart(ctx, userID)

	s.publish(ctx, "cart.cleared", func(ctx context.Context) error {
		return s.producer.PublishCartCleared(ctx, userID, cartID)
	})
	s.logger.InfoContext(ctx, "cart cleared",
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", cartID),
	)

	return s.Refresh(ctx, userID)
}

// Archive moves the active cart to the archive under name, generating a
// default name when name is blank, then resolves a fresh active cart.
func (s *CartService) Archive(ctx context.Context, userID int64, name string) (res *ArchiveResult, err error) {
	ctx, span := tracing.Start(ctx, tracer, "CartService.Archive", attribute.Int64("user.id", userID))
	defer func() {
		cartMutations.WithLabelValues("archive", outcome(err)).Inc()
		tracing.End(span, err)
	}()

	cartID, err := s.ResolveActiveCartID(ctx, userID)
	if err != nil {
		s.recordFailure(ctx, userID, "archive", err)
		return nil, err
	}

	name = domain.ResolveArchiveName(name, s.now())
	archived, err := s.backend.ArchiveCart(ctx, cartID, name)
	if err != nil {
		err = fmt.Errorf("archive cart: %w", err)
		s.recordFailure(ctx, userID, "archive", err)
		return nil, err
	}
	archived.UserID = userID
	if archived.UpdatedAt.IsZero() {
		archived.UpdatedAt = s.now()
	}
	s.forgetActiveCart(ctx, userID)

	s.publish(ctx, "cart.archived", func(ctx context.Context) error {
		return s.producer.PublishCartArchived(ctx, userID, archived)
	})
	s.logger.InfoContext(ctx, "cart archived",
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", archived.ID),
		slog.String("name", archived.Name),
	)

	// The archive already happened; a failed refresh only leaves the new
	// active cart to be loaded later.
	active, rerr := s.Refresh(ctx, userID)
	if rerr != nil {
		s.logger.WarnContext(ctx, "failed to load cart after archive",
			slog.Int64("user_id", userID),
			slog.String("error", rerr.Error()),
		)
		return &ArchiveResult{Archived: archived}, nil
	}
	return &ArchiveResult{Archived: archived, Active: active}, nil
}

// Restore makes an archived cart active again. Whatever cart was active
// before is discarded by the backend.
func (s *CartService) Restore(ctx context.Context, userID, cartID int64) (snap *domain.CartSnapshot, err error) {
	ctx, span := tracing.Start(ctx, tracer, "CartService.Restore",
		attribute.Int64("user.id", userID),
		attribute.Int64("cart.id", cartID),
	)
	defer func() {
		cartMutations.WithLabelValues("restore", outcome(err)).Inc()
		tracing.End(span, err)
	}()

	if userID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if cartID <= 0 {
		return nil, apperrors.InvalidInput("cart id is required")
	}

	if err := s.backend.ActivateCart(ctx, cartID); err != nil {
		err = fmt.Errorf("activate cart: %w", err)
		s.recordFailure(ctx, userID, "restore", err)
		return nil, err
	}
	s.forgetActiveCart(ctx, userID)

	s.publish(ctx, "cart.restored", func(ctx context.Context) error {
		return s.producer.PublishCartRestored(ctx, userID, cartID)
	})
	s.logger.InfoContext(ctx, "cart restored",
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", cartID),
	)

	return s.Refresh(ctx, userID)
}

// History lists the user's archived carts, newest first.
func (s *CartService) History(ctx context.Context, userID int64) ([]domain.Cart, error) {
	if userID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}

	carts, err := s.backend.CartHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart history: %w", err)
	}
	return domain.SortHistory(carts), nil
}

// ArchivedItems returns the lines of an archived cart.
func (s *CartService) ArchivedItems(ctx context.Context, userID, cartID int64) ([]domain.CartLine, error) {
	if userID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if cartID <= 0 {
		return nil, apperrors.InvalidInput("cart id is required")
	}

	lines, err := s.backend.CartItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get archived cart items: %w", err)
	}
	return domain.SortLines(lines), nil
}

// DeleteArchived deletes an archived cart. The active cart is deleted through
// Clear instead.
func (s *CartService) DeleteArchived(ctx context.Context, userID, cartID int64) (err error) {
	defer func() { cartMutations.WithLabelValues("delete_archived", outcome(err)).Inc() }()

	if userID <= 0 {
		return apperrors.InvalidInput("user id is required")
	}
	if cartID <= 0 {
		return apperrors.InvalidInput("cart id is required")
	}
	if active, err := s.activeIDs.Get(ctx, userID); err == nil && active == cartID {
		return apperrors.InvalidInput("cart " + strconv.FormatInt(cartID, 10) + " is the active cart")
	}

	if err := s.backend.DeleteCart(ctx, cartID); err != nil {
		return fmt.Errorf("delete archived cart: %w", err)
	}

	s.logger.InfoContext(ctx, "archived cart deleted",
		slog.Int64("user_id", userID),
		slog.Int64("cart_id", cartID),
	)
	return nil
}

// DismissError clears the stored error of the user's cart snapshot.
func (s *CartService) DismissError(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	if userID <= 0 {
		return nil, apperrors.InvalidInput("user id is required")
	}

	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.CartSnapshot{Lines: []domain.CartLine{}}, nil
		}
		return nil, fmt.Errorf("get cart snapshot: %w", err)
	}
	if snap.Error == "" {
		return snap, nil
	}

	snap.Error = ""
	if err := s.snapshots.Save(ctx, userID, snap); err != nil {
		return nil, fmt.Errorf("save cart snapshot: %w", err)
	}
	return snap, nil
}

// forgetActiveCart drops the cached active cart identity and snapshot after
// the backend changed which cart is active.
func (s *CartService) forgetActiveCart(ctx context.Context, userID int64) {
	s.dropActiveCartID(ctx, userID)
	if err := s.snapshots.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to drop cart snapshot",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// dropActiveCartID makes the next resolution ask the backend again.
func (s *CartService) dropActiveCartID(ctx context.Context, userID int64) {
	if err := s.activeIDs.Delete(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to drop cached active cart id",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// recordFailure stores a user-facing message on the snapshot, keeping its
// lines intact.
func (s *CartService) recordFailure(ctx context.Context, userID int64, op string, cause error) {
	s.logger.WarnContext(ctx, "cart operation failed",
		slog.Int64("user_id", userID),
		slog.String("operation", op),
		slog.String("error", cause.Error()),
	)

	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		snap = &domain.CartSnapshot{Lines: []domain.CartLine{}}
	}
	snap.Error = failureMessage(op, cause)
	if err := s.snapshots.Save(ctx, userID, snap); err != nil {
		s.logger.WarnContext(ctx, "failed to record cart error",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func failureMessage(op string, err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "could not " + op + " the cart, please try again"
}

// publish sends a best-effort event; failures are logged only.
func (s *CartService) publish(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish "+name+" event",
			slog.String("error", err.Error()),
		)
	}
}
