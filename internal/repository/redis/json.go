package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/yehuditohana/Supermarket-Price-Comparer/pkg/errors"
)

// getJSON loads and decodes the value under key. A missing key is reported as
// NotFound for resource/id.
func getJSON[T any](ctx context.Context, client *redis.Client, key, resource, id string) (*T, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound(resource, id)
		}
		return nil, fmt.Errorf("redis get %s: %w", resource, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", resource, err)
	}
	return &v, nil
}

// setJSON encodes v and stores it under key with ttl.
func setJSON(ctx context.Context, client *redis.Client, key, resource string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", resource, err)
	}
	if err := client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", resource, err)
	}
	return nil
}

func del(ctx context.Context, client *redis.Client, resource string, keys ...string) error {
	if err := client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", resource, err)
	}
	return nil
}
