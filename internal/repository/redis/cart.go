package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yehuditohana/Supermarket-Price-Comparer/internal/domain"
	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

const (
	activeCartPrefix = "cart:active:"
	snapshotPrefix   = "cart:snapshot:"
)

func userKey(prefix string, userID int64) string {
	return prefix + strconv.FormatInt(userID, 10)
}

// ActiveCartCache implements repository.ActiveCartCache using Redis.
type ActiveCartCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewActiveCartCache creates a new Redis-backed active cart id cache.
func NewActiveCartCache(client *redis.Client, ttl time.Duration) *ActiveCartCache {
	return &ActiveCartCache{client: client, ttl: ttl}
}

// Get returns the cached active cart id for the user.
func (c *ActiveCartCache) Get(ctx context.Context, userID int64) (int64, error) {
	id, err := c.client.Get(ctx, userKey(activeCartPrefix, userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, apperrors.NotFound("active cart for user", strconv.FormatInt(userID, 10))
		}
		return 0, fmt.Errorf("redis get active cart: %w", err)
	}
	return id, nil
}

// Set caches cartID as the user's active cart.
func (c *ActiveCartCache) Set(ctx context.Context, userID, cartID int64) error {
	if err := c.client.Set(ctx, userKey(activeCartPrefix, userID), cartID, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set active cart: %w", err)
	}
	return nil
}

// Delete forgets the user's active cart id.
func (c *ActiveCartCache) Delete(ctx context.Context, userID int64) error {
	return del(ctx, c.client, "active cart", userKey(activeCartPrefix, userID))
}

// CartSnapshotRepository implements repository.CartSnapshotRepository using Redis.
type CartSnapshotRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartSnapshotRepository creates a new Redis-backed cart snapshot repository.
func NewCartSnapshotRepository(client *redis.Client, ttl time.Duration) *CartSnapshotRepository {
	return &CartSnapshotRepository{client: client, ttl: ttl}
}

// Get retrieves the user's last cart snapshot.
func (r *CartSnapshotRepository) Get(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	return getJSON[domain.CartSnapshot](ctx, r.client, userKey(snapshotPrefix, userID),
		"cart snapshot", strconv.FormatInt(userID, 10))
}

// Save overwrites the user's cart snapshot.
func (r *CartSnapshotRepository) Save(ctx context.Context, userID int64, snapshot *domain.CartSnapshot) error {
	return setJSON(ctx, r.client, userKey(snapshotPrefix, userID), "cart snapshot", snapshot, r.ttl)
}

// Delete removes the user's cart snapshot.
func (r *CartSnapshotRepository) Delete(ctx context.Context, userID int64) error {
	return del(ctx, r.client, "cart snapshot", userKey(snapshotPrefix, userID))
}
