package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*CatalogCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCatalogCache(client, ttl), mr
}

func sampleAggregation() *domain.BrandAggregation {
	agg := domain.NewBrandAggregation()
	agg.Add(
		domain.Item{SKU: "1", Brand: "Topshop", Images: []string{"1.jpg"}},
		domain.Item{SKU: "2", Brand: "Monki", Images: []string{"2.jpg"}},
		domain.Item{SKU: "3", Brand: "Topshop", Images: []string{"3.jpg"}},
	)
	return agg
}

func TestCatalogCache_Miss(t *testing.T) {
	cache, _ := setupTestRedis(t, time.Minute)

	agg, ok, err := cache.Get(context.Background(), []string{"Topshop"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, agg)
}

func TestCatalogCache_SetAndGetKeepsOrder(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()
	brands := []string{"Topshop", "Monki"}

	require.NoError(t, cache.Set(ctx, brands, sampleAggregation()))
	assert.Equal(t, time.Minute, mr.TTL(Key(brands)))

	agg, ok, err := cache.Get(ctx, brands)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Topshop", "Monki"}, agg.Brands())
	assert.Len(t, agg.Items("Topshop"), 2)
}

func TestCatalogCache_ExpiresAfterTTL(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()
	brands := []string{"Topshop"}

	require.NoError(t, cache.Set(ctx, brands, sampleAggregation()))
	mr.FastForward(time.Minute + time.Second)

	_, ok, err := cache.Get(ctx, brands)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogCache_Invalidate(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()
	brands := []string{"Topshop"}

	require.NoError(t, cache.Set(ctx, brands, sampleAggregation()))
	require.NoError(t, cache.Invalidate(ctx, brands))
	assert.False(t, mr.Exists(Key(brands)))
}

func TestCatalogCache_CorruptEntry(t *testing.T) {
	cache, mr := setupTestRedis(t, time.Minute)
	brands := []string{"Topshop"}
	require.NoError(t, mr.Set(Key(brands), "{not json"))

	_, ok, err := cache.Get(context.Background(), brands)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists(Key(brands)), "corrupt entry should be dropped")
}

func TestKey_DependsOnOrder(t *testing.T) {
	assert.NotEqual(t, Key([]string{"A", "B"}), Key([]string{"B", "A"}))
	assert.Equal(t, Key([]string{"A", "B"}), Key([]string{"A", "B"}))
	assert.Contains(t, Key(nil), keyPrefix)
}
