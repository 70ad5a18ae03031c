package service

import (
	"context"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
)

// CartBackend is the part of the price backend that owns carts.
type CartBackend interface {
	ActiveCartID(ctx context.Context, userID int64) (int64, error)
	ActiveCartItems(ctx context.Context, userID int64) ([]domain.CartLine, error)
	CartItems(ctx context.Context, cartID int64) ([]domain.CartLine, error)
	AddItem(ctx context.Context, cartID int64, itemID string, quantity int) error
	RemoveItem(ctx context.Context, cartID int64, itemID string, quantity int) error
	ArchiveCart(ctx context.Context, cartID int64, name string) (domain.Cart, error)
	ActivateCart(ctx context.Context, cartID int64) error
	DeleteCart(ctx context.Context, cartID int64) error
	CartHistory(ctx context.Context, userID int64) ([]domain.Cart, error)
}

// StoreBackend lists stores page by page.
type StoreBackend interface {
	Stores(ctx context.Context, page, size int) ([]domain.Store, error)
	SearchStores(ctx context.Context, q domain.StoreQuery, page, size int) ([]domain.Store, error)
}

// ComparisonBackend prices carts and offers alternatives.
type ComparisonBackend interface {
	Compare(ctx context.Context, userID, cartID int64, storeIDs []int64) ([]domain.StoreResult, error)
	Alternatives(ctx context.Context, storeID int64, itemID string) ([]domain.Alternative, error)
}

// AuthBackend issues and revokes session tokens.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*domain.Identity, error)
	Logout(ctx context.Context, sessionToken string) error
}
