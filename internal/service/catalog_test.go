package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func brandBackend(byBrand map[string][]domain.Item, failing map[string]error) *fakeBackend {
	return &fakeBackend{productsByBrand: func(_ context.Context, brand string) ([]domain.Item, error) {
		if err, ok := failing[brand]; ok {
			return nil, err
		}
		return byBrand[brand], nil
	}}
}

func TestCatalogAggregator_KeysOnlyForBrandsWithItems(t *testing.T) {
	brands := []string{"Topshop", "Monki", "Bershka", "Asyou"}
	backend := brandBackend(map[string][]domain.Item{
		"Topshop": {item("1", "Topshop"), item("2", "Topshop")},
		"Bershka": {item("3", "Bershka")},
	}, nil)

	st := NewCatalogAggregator(backend, nil, testLogger()).Load(context.Background(), brands)

	require.Equal(t, domain.StatusSuccess, st.Status)
	assert.Equal(t, []string{"Topshop", "Bershka"}, st.Groups.Brands())
	for _, b := range st.Groups.Brands() {
		assert.NotEmpty(t, st.Groups.Items(b))
	}
	assert.Nil(t, st.Groups.Items("Monki"))
	assert.Equal(t, int32(len(brands)), backend.calls.Load())
}

func TestCatalogAggregator_OneFailureFailsEverything(t *testing.T) {
	brands := []string{"Topshop", "Monki", "Bershka"}
	backend := brandBackend(map[string][]domain.Item{
		"Topshop": {item("1", "Topshop")},
		"Bershka": {item("3", "Bershka")},
	}, map[string]error{
		"Monki": apperrors.TransportFailure("recommend-api: request failed", nil),
	})

	st := NewCatalogAggregator(backend, nil, testLogger()).Load(context.Background(), brands)

	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.Equal(t, 0, st.Groups.Len())
	assert.Equal(t, domain.MsgCatalogFailed, st.Message)
	assert.True(t, apperrors.IsTransport(st.Err))
	assert.Contains(t, st.Err.Error(), `"Monki"`)
}

func TestCatalogAggregator_GroupsByItemBrandNotRequestedBrand(t *testing.T) {
	backend := brandBackend(map[string][]domain.Item{
		"Asos Curve": {item("1", "Asos Curve"), item("2", "Asos Tall")},
		"Asos Tall":  {item("3", "Asos Tall")},
	}, nil)

	st := NewCatalogAggregator(backend, nil, testLogger()).
		Load(context.Background(), []string{"Asos Curve", "Asos Tall"})

	require.Equal(t, domain.StatusSuccess, st.Status)
	assert.Equal(t, []string{"Asos Curve", "Asos Tall"}, st.Groups.Brands())
	tall := st.Groups.Items("Asos Tall")
	require.Len(t, tall, 2)
	assert.Equal(t, domain.SKU("2"), tall[0].SKU)
	assert.Equal(t, domain.SKU("3"), tall[1].SKU)
}

func TestCatalogAggregator_OrderFollowsRequestedListNotArrival(t *testing.T) {
	backend := &fakeBackend{productsByBrand: func(_ context.Context, brand string) ([]domain.Item, error) {
		if brand == "Topshop" {
			time.Sleep(30 * time.Millisecond)
		}
		return []domain.Item{item(brand, brand)}, nil
	}}

	st := NewCatalogAggregator(backend, nil, testLogger()).
		Load(context.Background(), []string{"Topshop", "Monki"})

	assert.Equal(t, []string{"Topshop", "Monki"}, st.Groups.Brands())
}

func TestCatalogAggregator_WaitsForAllRequests(t *testing.T) {
	var finished int32
	backend := &fakeBackend{productsByBrand: func(ctx context.Context, brand string) ([]domain.Item, error) {
		if brand == "Monki" {
			return nil, errors.New("boom")
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		finished++
		return nil, ctx.Err()
	}}

	st := NewCatalogAggregator(backend, nil, testLogger()).
		Load(context.Background(), []string{"Topshop", "Monki"})

	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.Equal(t, int32(1), finished, "the slow sibling settled before Load returned")
}

func TestCatalogAggregator_EmptyCatalog(t *testing.T) {
	backend := brandBackend(map[string][]domain.Item{}, nil)

	st := NewCatalogAggregator(backend, nil, testLogger()).Load(context.Background(), []string{"Monki"})

	assert.Equal(t, domain.StatusEmpty, st.Status)
	assert.Equal(t, domain.MsgNothingFound, st.Message)
	assert.Equal(t, 0, st.Groups.Len())
}

func TestCatalogAggregator_CachesSuccessfulAggregation(t *testing.T) {
	backend := brandBackend(map[string][]domain.Item{"Monki": {item("1", "Monki")}}, nil)
	cache := newMemoryCache()
	agg := NewCatalogAggregator(backend, cache, testLogger())

	first := agg.Load(context.Background(), []string{"Monki"})
	require.Equal(t, domain.StatusSuccess, first.Status)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, cache.sets)

	second := agg.Load(context.Background(), []string{"Monki"})
	assert.True(t, second.Cached)
	assert.Equal(t, first.Groups.Brands(), second.Groups.Brands())
	assert.Equal(t, int32(1), backend.calls.Load())
}

func TestCatalogAggregator_FailureNotCached(t *testing.T) {
	backend := brandBackend(nil, map[string]error{"Monki": errors.New("boom")})
	cache := newMemoryCache()

	st := NewCatalogAggregator(backend, cache, testLogger()).Load(context.Background(), []string{"Monki"})

	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.Equal(t, 0, cache.sets)
}
