package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/tracing"
)

const tracerName = "github.com/utafrali/storefront/internal/service"

// Operation labels for backend metrics.
const (
	OpSearch          = "search"
	OpProductsByBrand = "products_by_brand"
	OpPreference      = "preference"
	OpGetItem         = "get_item"
)

var (
	backendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_backend_requests_total",
			Help: "Total number of recommendation backend requests by outcome",
		},
		[]string{"operation", "outcome"},
	)

	backendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_backend_request_duration_seconds",
			Help:    "Recommendation backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Backend is the recommendation backend as seen by the views.
// *recommend.Client satisfies it.
type Backend interface {
	Search(ctx context.Context, q domain.Query) ([]domain.Item, error)
	ProductsByBrand(ctx context.Context, brand string) ([]domain.Item, error)
	Preference(ctx context.Context, sku int) (domain.PreferenceResult, error)
	GetItem(ctx context.Context, sku domain.SKU) (*domain.Item, error)
}

// CatalogCache stores settled catalog aggregations.
type CatalogCache interface {
	Get(ctx context.Context, brands []string) (*domain.BrandAggregation, bool, error)
	Set(ctx context.Context, brands []string, agg *domain.BrandAggregation) error
}

// EventPublisher publishes storefront activity events.
type EventPublisher interface {
	PublishSearchPerformed(ctx context.Context, q domain.Query, status domain.Status, resultCount int) error
	PublishItemViewed(ctx context.Context, item *domain.Item) error
}

func tracer() trace.Tracer {
	return tracing.Tracer(tracerName)
}

// observe records the outcome of one backend call on metrics and span.
func observe(span trace.Span, operation string, start time.Time, err error) {
	backendRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		backendRequestsTotal.WithLabelValues(operation, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	backendRequestsTotal.WithLabelValues(operation, "success").Inc()
}

// renderable drops items that cannot be shown.
func renderable(items []domain.Item) []domain.Item {
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.Renderable() {
			out = append(out, it)
		}
	}
	return out
}

func logTransition(ctx context.Context, l *slog.Logger, view string, from, to domain.Status) {
	l.DebugContext(ctx, "view state transition",
		slog.String("view", view),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
}
