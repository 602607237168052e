package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores upstream payloads in Redis for a short TTL so bursts of
// identical lookups do not hammer the third-party API.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached payload for the coordinates, or nil on a miss.
func (c *Cache) Get(ctx context.Context, lat, lon string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	payload, err := c.client.Get(ctx, cacheKey(lat, lon)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

// Set stores a payload. Failures are the caller's to ignore; the cache is
// best-effort.
func (c *Cache) Set(ctx context.Context, lat, lon string, payload []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, cacheKey(lat, lon), payload, c.ttl).Err()
}

func cacheKey(lat, lon string) string {
	return fmt.Sprintf("weather:current:%s:%s", lat, lon)
}
