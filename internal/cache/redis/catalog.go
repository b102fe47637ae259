package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
)

const keyPrefix = "catalog:"

// CatalogCache stores settled catalog aggregations keyed by the requested
// brand list.
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache creates a Redis-backed catalog cache.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, ttl: ttl}
}

// Key returns the cache key for a brand list. Order matters since it
// determines the aggregation's key order.
func Key(brands []string) string {
	sum := sha256.Sum256([]byte(strings.Join(brands, "\x00")))
	return keyPrefix + hex.EncodeToString(sum[:8])
}

// Get returns the cached aggregation. A miss returns (nil, false, nil). An
// entry that no longer decodes is dropped so the next load refills it.
func (c *CatalogCache) Get(ctx context.Context, brands []string) (*domain.BrandAggregation, bool, error) {
	data, err := c.client.Get(ctx, Key(brands)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get catalog: %w", err)
	}

	agg := domain.NewBrandAggregation()
	if err := json.Unmarshal(data, agg); err != nil {
		return nil, false, errors.Join(fmt.Errorf("unmarshal catalog: %w", err), c.Invalidate(ctx, brands))
	}
	return agg, true, nil
}

// Set stores the aggregation for the configured TTL.
func (c *CatalogCache) Set(ctx context.Context, brands []string, agg *domain.BrandAggregation) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := c.client.Set(ctx, Key(brands), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set catalog: %w", err)
	}
	return nil
}

// Invalidate drops the cached aggregation for brands.
func (c *CatalogCache) Invalidate(ctx context.Context, brands []string) error {
	if err := c.client.Del(ctx, Key(brands)).Err(); err != nil {
		return fmt.Errorf("redis del catalog: %w", err)
	}
	return nil
}
