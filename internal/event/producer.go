package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Event types published by the storefront.
const (
	TypeSearchPerformed = "search.performed"
	TypeItemViewed      = "item.viewed"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// SearchPerformedData is the payload of a search.performed event.
type SearchPerformedData struct {
	Text        string        `json:"text,omitempty"`
	HasImage    bool          `json:"has_image"`
	Brand       string        `json:"brand"`
	Color       string        `json:"color"`
	Status      domain.Status `json:"status"`
	ResultCount int           `json:"result_count"`
	UserID      string        `json:"user_id,omitempty"`
}

// ItemViewedData is the payload of an item.viewed event.
type ItemViewedData struct {
	SKU    domain.SKU `json:"sku"`
	Brand  string     `json:"brand"`
	Color  string     `json:"color"`
	UserID string     `json:"user_id,omitempty"`
}

// Publisher is satisfied by *pkgkafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront activity events. A Producer without a
// Publisher drops every event.
type Producer struct {
	publisher Publisher
	prefix    string
	logger    *slog.Logger
}

// NewProducer creates an activity event producer. publisher may be nil when
// no brokers are configured.
func NewProducer(publisher Publisher, topicPrefix string, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		publisher: publisher,
		prefix:    topicPrefix,
		logger:    logger,
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p != nil && p.publisher != nil
}

// PublishSearchPerformed publishes a search.performed event.
func (p *Producer) PublishSearchPerformed(ctx context.Context, q domain.Query, status domain.Status, resultCount int) error {
	data := SearchPerformedData{
		Text:        q.Text,
		HasImage:    q.HasImage(),
		Brand:       domain.EncodeFilter(q.Brand),
		Color:       domain.EncodeFilter(q.Color),
		Status:      status,
		ResultCount: resultCount,
		UserID:      logger.UserIDFromContext(ctx),
	}
	return p.publish(ctx, TypeSearchPerformed, data.UserID, data)
}

// PublishItemViewed publishes an item.viewed event keyed by SKU.
func (p *Producer) PublishItemViewed(ctx context.Context, item *domain.Item) error {
	data := ItemViewedData{
		SKU:    item.SKU,
		Brand:  item.Brand,
		Color:  item.Color,
		UserID: logger.UserIDFromContext(ctx),
	}
	return p.publish(ctx, TypeItemViewed, item.SKU.String(), data)
}

func (p *Producer) publish(ctx context.Context, eventType, key string, data any) error {
	if !p.Enabled() {
		return nil
	}

	evt, err := pkgkafka.NewEvent(eventType, key, SourceStorefront, data,
		pkgkafka.Correlated(logger.CorrelationIDFromContext(ctx)),
		pkgkafka.Meta("session_id", logger.SessionIDFromContext(ctx)),
	)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.publisher.Publish(ctx, pkgkafka.Topic(p.prefix, eventType), evt); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("event_type", eventType),
		slog.String("event_id", evt.EventID),
	)
	return nil
}
