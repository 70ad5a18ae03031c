package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/repository"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// DefaultStorePageSize is the number of stores fetched per discovery page.
const DefaultStorePageSize = 30

// SelectionService manages the bounded store selection of a browsing session
// together with paginated store discovery and filtered search.
type SelectionService struct {
	backend   StoreBackend
	selection repository.SelectionRepository
	browse    repository.BrowseRepository
	pageSize  int
	logger    *slog.Logger

	// pages keeps one page load per session in flight.
	pages singleflight.Group
}

// NewSelectionService creates a new selection service. A non-positive
// pageSize falls back to DefaultStorePageSize.
func NewSelectionService(
	backend StoreBackend,
	selection repository.SelectionRepository,
	browse repository.BrowseRepository,
	pageSize int,
	logger *slog.Logger,
) *SelectionService {
	if pageSize <= 0 {
		pageSize = DefaultStorePageSize
	}
	return &SelectionService{
		backend:   backend,
		selection: selection,
		browse:    browse,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Toggle removes storeID from the selection when present, otherwise adds it
// if fewer than four stores are selected. At capacity the call is a no-op
// reported as SelectionRejected.
func (s *SelectionService) Toggle(ctx context.Context, sessionID string, storeID int64) (*domain.Selection, domain.SelectionChange, error) {
	if sessionID == "" {
		return nil, "", apperrors.InvalidInput("session id is required")
	}
	if storeID <= 0 {
		return nil, "", apperrors.InvalidInput("store id is required")
	}

	sel, err := s.selection.Get(ctx, sessionID)
	if err != nil {
		return nil, "", fmt.Errorf("get store selection: %w", err)
	}

	change := sel.Toggle(storeID)
	if change == domain.SelectionRejected {
		s.logger.DebugContext(ctx, "store selection is full",
			slog.String("session_id", sessionID),
			slog.Int64("store_id", storeID),
		)
		return sel, change, nil
	}

	if err := s.selection.Save(ctx, sessionID, sel); err != nil {
		return nil, "", fmt.Errorf("save store selection: %w", err)
	}
	return sel, change, nil
}

// Selected returns the session's selection in insertion order.
func (s *SelectionService) Selected(ctx context.Context, sessionID string) (*domain.Selection, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	sel, err := s.selection.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get store selection: %w", err)
	}
	return sel, nil
}

// ClearSelection deselects every store.
func (s *SelectionService) ClearSelection(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}
	if err := s.selection.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear store selection: %w", err)
	}
	return nil
}

// Browse returns the stores discovered so far, loading the first page when
// the session has not browsed yet.
func (s *SelectionService) Browse(ctx context.Context, sessionID string) (*domain.StoreBrowse, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	b, err := s.browse.GetBrowse(ctx, sessionID)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("get store browse: %w", err)
	}
	return s.NextPage(ctx, sessionID)
}

// NextPage fetches the next page of stores and merges it into the session's
// list. Once an empty page has been seen no further request is made.
func (s *SelectionService) NextPage(ctx context.Context, sessionID string) (*domain.StoreBrowse, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	v, err, _ := s.pages.Do(sessionID, func() (any, error) {
		b, err := s.browse.GetBrowse(ctx, sessionID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("get store browse: %w", err)
			}
			b = domain.NewStoreBrowse(s.pageSize)
		}
		if !b.HasMore {
			return b, nil
		}

		page, err := s.backend.Stores(ctx, b.NextPage, b.PageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch stores page %d: %w", b.NextPage, err)
		}
		b.ApplyPage(page)

		if err := s.browse.SaveBrowse(ctx, sessionID, b); err != nil {
			return nil, fmt.Errorf("save store browse: %w", err)
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.StoreBrowse), nil
}

// Search runs a one-shot filtered query kept apart from the browse list.
// With both filters blank nothing is fetched and the result is empty.
func (s *SelectionService) Search(ctx context.Context, sessionID string, q domain.StoreQuery, page int) (*domain.StoreSearch, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if page < 0 {
		return nil, apperrors.InvalidInput("page must not be negative")
	}

	q = domain.StoreQuery{City: strings.TrimSpace(q.City), Chain: strings.TrimSpace(q.Chain)}
	result := &domain.StoreSearch{Query: q, Stores: []domain.Store{}}
	if q.IsEmpty() {
		return result, nil
	}

	stores, err := s.backend.SearchStores(ctx, q, page, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("search stores: %w", err)
	}
	result.Stores = domain.MergeStores(nil, stores)

	if err := s.browse.SaveSearch(ctx, sessionID, result); err != nil {
		s.logger.WarnContext(ctx, "failed to save store search",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	return result, nil
}

// LastSearch returns the session's last filtered search.
func (s *SelectionService) LastSearch(ctx context.Context, sessionID string) (*domain.StoreSearch, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	search, err := s.browse.GetSearch(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get store search: %w", err)
	}
	return search, nil
}

// ResetBrowse drops the accumulated store list so discovery starts over.
func (s *SelectionService) ResetBrowse(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.InvalidInput("session id is required")
	}
	if err := s.browse.DeleteBrowse(ctx, sessionID); err != nil {
		return fmt.Errorf("reset store browse: %w", err)
	}
	return nil
}
