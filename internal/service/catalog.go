package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/storefront/internal/domain"
)

// CatalogState is a snapshot of the catalog view.
type CatalogState struct {
	Status  domain.Status            `json:"status"`
	Groups  *domain.BrandAggregation `json:"groups"`
	Message string                   `json:"message,omitempty"`
	Cached  bool                     `json:"cached,omitempty"`
	Err     error                    `json:"-"`
}

// CatalogAggregator fans out one products-by-brand request per brand and
// merges the responses into a BrandAggregation. The fan-out is
// all-or-nothing: one failed brand fails the whole catalog.
type CatalogAggregator struct {
	backend Backend
	cache   CatalogCache
	logger  *slog.Logger
}

// NewCatalogAggregator creates a catalog aggregator. cache may be nil.
func NewCatalogAggregator(backend Backend, cache CatalogCache, logger *slog.Logger) *CatalogAggregator {
	return &CatalogAggregator{
		backend: backend,
		cache:   cache,
		logger:  logger,
	}
}

// Load aggregates the catalog for brands. Groups are ordered by the first
// item encountered when the responses are concatenated in brands order;
// items are grouped by their own brand field, not by the requested brand.
func (a *CatalogAggregator) Load(ctx context.Context, brands []string) CatalogState {
	logTransition(ctx, a.logger, "catalog", domain.StatusIdle, domain.StatusPending)

	if agg, ok := a.cached(ctx, brands); ok {
		return a.settle(ctx, CatalogState{Status: statusFor(agg.Len()), Groups: agg, Cached: true})
	}

	ctx, span := tracer().Start(ctx, "catalog.load")
	span.SetAttributes(attribute.Int("catalog.brands", len(brands)))
	defer span.End()

	results := make([][]domain.Item, len(brands))
	g, gctx := errgroup.WithContext(ctx)
	for i, brand := range brands {
		g.Go(func() error {
			items, err := a.fetchBrand(gctx, brand)
			if err != nil {
				return fmt.Errorf("brand %q: %w", brand, err)
			}
			results[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return a.settle(ctx, CatalogState{
			Status:  domain.StatusFailed,
			Groups:  domain.NewBrandAggregation(),
			Message: domain.MsgCatalogFailed,
			Err:     err,
		})
	}

	agg := domain.NewBrandAggregation()
	for _, items := range results {
		agg.Add(renderable(items)...)
	}

	if a.cache != nil && agg.Len() > 0 {
		if err := a.cache.Set(ctx, brands, agg); err != nil {
			a.logger.WarnContext(ctx, "failed to cache catalog", slog.String("error", err.Error()))
		}
	}

	return a.settle(ctx, CatalogState{Status: statusFor(agg.Len()), Groups: agg})
}

func (a *CatalogAggregator) fetchBrand(ctx context.Context, brand string) ([]domain.Item, error) {
	ctx, span := tracer().Start(ctx, "catalog.products_by_brand")
	span.SetAttributes(attribute.String("catalog.brand", brand))
	defer span.End()

	start := time.Now()
	items, err := a.backend.ProductsByBrand(ctx, brand)
	observe(span, OpProductsByBrand, start, err)
	if err != nil {
		a.logger.WarnContext(ctx, "brand request failed",
			slog.String("brand", brand),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.items", len(items)))
	return items, nil
}

func (a *CatalogAggregator) cached(ctx context.Context, brands []string) (*domain.BrandAggregation, bool) {
	if a.cache == nil {
		return nil, false
	}
	agg, ok, err := a.cache.Get(ctx, brands)
	if err != nil {
		a.logger.WarnContext(ctx, "catalog cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	return agg, ok
}

func (a *CatalogAggregator) settle(ctx context.Context, st CatalogState) CatalogState {
	if st.Status == domain.StatusEmpty {
		st.Message = domain.MsgNothingFound
	}
	logTransition(ctx, a.logger, "catalog", domain.StatusPending, st.Status)
	return st
}

func statusFor(n int) domain.Status {
	if n == 0 {
		return domain.StatusEmpty
	}
	return domain.StatusSuccess
}
