package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/storefront/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend routes each call to an optional function and counts calls.
type fakeBackend struct {
	search          func(ctx context.Context, q domain.Query) ([]domain.Item, error)
	productsByBrand func(ctx context.Context, brand string) ([]domain.Item, error)
	preference      func(ctx context.Context, sku int) (domain.PreferenceResult, error)
	getItem         func(ctx context.Context, sku domain.SKU) (*domain.Item, error)

	calls atomic.Int32
}

func (f *fakeBackend) Search(ctx context.Context, q domain.Query) ([]domain.Item, error) {
	f.calls.Add(1)
	return f.search(ctx, q)
}

func (f *fakeBackend) ProductsByBrand(ctx context.Context, brand string) ([]domain.Item, error) {
	f.calls.Add(1)
	return f.productsByBrand(ctx, brand)
}

func (f *fakeBackend) Preference(ctx context.Context, sku int) (domain.PreferenceResult, error) {
	f.calls.Add(1)
	return f.preference(ctx, sku)
}

func (f *fakeBackend) GetItem(ctx context.Context, sku domain.SKU) (*domain.Item, error) {
	f.calls.Add(1)
	return f.getItem(ctx, sku)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishSearchPerformed(ctx context.Context, q domain.Query, status domain.Status, n int) error {
	return m.Called(ctx, q, status, n).Error(0)
}

func (m *mockEvents) PublishItemViewed(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}

// memoryCache is an in-memory CatalogCache.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]*domain.BrandAggregation
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]*domain.BrandAggregation)}
}

func cacheKey(brands []string) string {
	key := ""
	for _, b := range brands {
		key += b + "|"
	}
	return key
}

func (c *memoryCache) Get(_ context.Context, brands []string) (*domain.BrandAggregation, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	agg, ok := c.data[cacheKey(brands)]
	return agg, ok, nil
}

func (c *memoryCache) Set(_ context.Context, brands []string, agg *domain.BrandAggregation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[cacheKey(brands)] = agg
	c.sets++
	return nil
}

func item(sku, brand string) domain.Item {
	return domain.Item{SKU: domain.SKU(sku), Name: "item " + sku, Brand: brand, Images: []string{sku + ".jpg"}}
}
