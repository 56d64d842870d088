// Package cache holds the Redis hot cache for fallback listing batches.
// Secondary-source listings are not cache-of-record material (they never go
// into the novels table), but repeated category browses should not hammer
// the fallback API either; a short TTL batch cache splits the difference.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"novelhub/internal/models"
)

// ListingCache is best-effort: every failure degrades to a miss and a log
// line, never to a request failure. A nil *ListingCache is a valid no-op.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewListingCache connects to Redis and verifies the connection. Returns an
// error only on misconfiguration; callers may choose to run without a cache.
func NewListingCache(addr, password string, ttl time.Duration, logger *slog.Logger) (*ListingCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &ListingCache{client: rdb, ttl: ttl, logger: logger}, nil
}

func key(source models.SourceTag, page int, category string) string {
	return fmt.Sprintf("listing:%s:%s:%d", source, category, page)
}

// Get returns a cached batch, or ok=false on miss or any error.
func (c *ListingCache) Get(ctx context.Context, source models.SourceTag, page int, category string) ([]models.Listing, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key(source, page, category)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("listing cache read failed", "error", err)
		return nil, false
	}

	var listings []models.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		c.logger.Warn("listing cache decode failed", "error", err)
		return nil, false
	}
	return listings, true
}

// Set stores a batch with the configured TTL. Errors are logged and
// swallowed.
func (c *ListingCache) Set(ctx context.Context, source models.SourceTag, page int, category string, listings []models.Listing) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(listings)
	if err != nil {
		c.logger.Warn("listing cache encode failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, key(source, page, category), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("listing cache write failed", "error", err)
	}
}
