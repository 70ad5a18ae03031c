package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// Session-scoped keys live under session:{id}: and share the session TTL, so
// an abandoned tab's state disappears on its own.
const (
	comparisonKeyName = "comparisonResults"
	selectionKeyName  = "selectedStores"
	browseKeyName     = "storeBrowse"
	searchKeyName     = "storeSearch"
)

func sessionKey(sessionID, name string) string {
	return "session:" + sessionID + ":" + name
}

// ComparisonCache implements repository.ComparisonCache using Redis.
type ComparisonCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewComparisonCache creates a new Redis-backed session comparison cache.
func NewComparisonCache(client *redis.Client, ttl time.Duration) *ComparisonCache {
	return &ComparisonCache{client: client, ttl: ttl}
}

// Get returns the session's cached comparison result.
func (c *ComparisonCache) Get(ctx context.Context, sessionID string) (*domain.ComparisonResult, error) {
	return getJSON[domain.ComparisonResult](ctx, c.client, sessionKey(sessionID, comparisonKeyName),
		"comparison result", sessionID)
}

// Save replaces the session's cached comparison result.
func (c *ComparisonCache) Save(ctx context.Context, sessionID string, result *domain.ComparisonResult) error {
	return setJSON(ctx, c.client, sessionKey(sessionID, comparisonKeyName), "comparison result", result, c.ttl)
}

// Delete clears the session's cached comparison result.
func (c *ComparisonCache) Delete(ctx context.Context, sessionID string) error {
	return del(ctx, c.client, "comparison result", sessionKey(sessionID, comparisonKeyName))
}

// SelectionRepository implements repository.SelectionRepository using Redis.
type SelectionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSelectionRepository creates a new Redis-backed store selection repository.
func NewSelectionRepository(client *redis.Client, ttl time.Duration) *SelectionRepository {
	return &SelectionRepository{client: client, ttl: ttl}
}

// Get returns the session's selection. A session without one gets an empty selection.
func (r *SelectionRepository) Get(ctx context.Context, sessionID string) (*domain.Selection, error) {
	sel, err := getJSON[domain.Selection](ctx, r.client, sessionKey(sessionID, selectionKeyName),
		"store selection", sessionID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &domain.Selection{StoreIDs: []int64{}}, nil
	}
	return sel, err
}

// Save overwrites the session's selection.
func (r *SelectionRepository) Save(ctx context.Context, sessionID string, selection *domain.Selection) error {
	return setJSON(ctx, r.client, sessionKey(sessionID, selectionKeyName), "store selection", selection, r.ttl)
}

// Delete clears the session's selection.
func (r *SelectionRepository) Delete(ctx context.Context, sessionID string) error {
	return del(ctx, r.client, "store selection", sessionKey(sessionID, selectionKeyName))
}

// BrowseRepository implements repository.BrowseRepository using Redis.
type BrowseRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBrowseRepository creates a new Redis-backed store discovery repository.
func NewBrowseRepository(client *redis.Client, ttl time.Duration) *BrowseRepository {
	return &BrowseRepository{client: client, ttl: ttl}
}

// GetBrowse returns the session's accumulated discovery state.
func (r *BrowseRepository) GetBrowse(ctx context.Context, sessionID string) (*domain.StoreBrowse, error) {
	return getJSON[domain.StoreBrowse](ctx, r.client, sessionKey(sessionID, browseKeyName), "store browse", sessionID)
}

// SaveBrowse overwrites the session's discovery state.
func (r *BrowseRepository) SaveBrowse(ctx context.Context, sessionID string, browse *domain.StoreBrowse) error {
	return setJSON(ctx, r.client, sessionKey(sessionID, browseKeyName), "store browse", browse, r.ttl)
}

// DeleteBrowse resets discovery and the last search for the session.
func (r *BrowseRepository) DeleteBrowse(ctx context.Context, sessionID string) error {
	return del(ctx, r.client, "store browse",
		sessionKey(sessionID, browseKeyName), sessionKey(sessionID, searchKeyName))
}

// GetSearch returns the session's last filtered search.
func (r *BrowseRepository) GetSearch(ctx context.Context, sessionID string) (*domain.StoreSearch, error) {
	return getJSON[domain.StoreSearch](ctx, r.client, sessionKey(sessionID, searchKeyName), "store search", sessionID)
}

// SaveSearch overwrites the session's last filtered search.
func (r *BrowseRepository) SaveSearch(ctx context.Context, sessionID string, search *domain.StoreSearch) error {
	return setJSON(ctx, r.client, sessionKey(sessionID, searchKeyName), "store search", search, r.ttl)
}
