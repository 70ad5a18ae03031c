package repository

import (
	"context"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

// ActiveCartCache caches the backend-authoritative active cart id per user.
type ActiveCartCache interface {
	// Get returns the cached id, or a NotFound error when nothing is cached.
	Get(ctx context.Context, userID int64) (int64, error)

	// Set stores cartID for the user. The last successful write wins.
	Set(ctx context.Context, userID, cartID int64) error

	// Delete drops the cached id so the next resolution asks the backend.
	Delete(ctx context.Context, userID int64) error
}

// CartSnapshotRepository stores the last full view of each user's active cart.
type CartSnapshotRepository interface {
	Get(ctx context.Context, userID int64) (*domain.CartSnapshot, error)
	Save(ctx context.Context, userID int64, snapshot *domain.CartSnapshot) error
	Delete(ctx context.Context, userID int64) error
}

// SelectionRepository stores the selected stores of a browsing session.
type SelectionRepository interface {
	// Get returns the session's selection, empty when none was saved.
	Get(ctx context.Context, sessionID string) (*domain.Selection, error)
	Save(ctx context.Context, sessionID string, selection *domain.Selection) error
	Delete(ctx context.Context, sessionID string) error
}

// BrowseRepository stores paginated store discovery and the last filtered
// search of a browsing session. The two are kept under separate keys.
type BrowseRepository interface {
	GetBrowse(ctx context.Context, sessionID string) (*domain.StoreBrowse, error)
	SaveBrowse(ctx context.Context, sessionID string, browse *domain.StoreBrowse) error
	DeleteBrowse(ctx context.Context, sessionID string) error

	GetSearch(ctx context.Context, sessionID string) (*domain.StoreSearch, error)
	SaveSearch(ctx context.Context, sessionID string, search *domain.StoreSearch) error
}

// ComparisonCache is the session-scoped store of the last comparison result.
type ComparisonCache interface {
	// Get returns a NotFound error when the session has no cached result.
	Get(ctx context.Context, sessionID string) (*domain.ComparisonResult, error)

	// Save overwrites any previous result in full.
	Save(ctx context.Context, sessionID string, result *domain.ComparisonResult) error

	Delete(ctx context.Context, sessionID string) error
}

// IdentityRepository persists which shopper a backend session token belongs to.
type IdentityRepository interface {
	GetByToken(ctx context.Context, token string) (*domain.Identity, error)
	Save(ctx context.Context, identity *domain.Identity) error
	Delete(ctx context.Context, token string) error
}
