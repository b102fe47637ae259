package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
)

// SearchState is a snapshot of the search view.
type SearchState struct {
	Status  domain.Status `json:"status"`
	Items   []domain.Item `json:"items"`
	Message string        `json:"message,omitempty"`

	// Superseded is set on the snapshot returned to a caller whose search
	// was overtaken by a later one; its outcome was not applied.
	Superseded bool  `json:"superseded,omitempty"`
	Err        error `json:"-"`
}

// SearchClient owns the state machine of a single-shot search view:
// Idle, then Pending, then Success, Empty or Failed. A new search may be
// issued while one is pending; only the most recently issued search is
// applied to the state.
type SearchClient struct {
	backend Backend
	events  EventPublisher
	logger  *slog.Logger

	mu    sync.Mutex
	seq   uint64
	state SearchState
}

// NewSearchClient creates an idle search view. events may be nil.
func NewSearchClient(backend Backend, events EventPublisher, logger *slog.Logger) *SearchClient {
	return &SearchClient{
		backend: backend,
		events:  events,
		logger:  logger,
		state:   SearchState{Status: domain.StatusIdle, Items: []domain.Item{}},
	}
}

// State returns the current snapshot.
func (c *SearchClient) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Search submits q and returns the snapshot produced by it. The outcome is
// applied to the view only when no later search was issued meanwhile.
func (c *SearchClient) Search(ctx context.Context, q domain.Query) SearchState {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	prev := c.state.Status
	c.state.Status = domain.StatusPending
	c.state.Message = ""
	c.state.Err = nil
	c.mu.Unlock()
	logTransition(ctx, c.logger, "search", prev, domain.StatusPending)

	ctx, span := tracer().Start(ctx, "search")
	span.SetAttributes(
		attribute.Bool("search.has_text", q.Text != ""),
		attribute.Bool("search.has_image", q.HasImage()),
		attribute.String("search.brand", domain.EncodeFilter(q.Brand)),
		attribute.String("search.color", domain.EncodeFilter(q.Color)),
	)
	defer span.End()

	start := time.Now()
	items, err := c.backend.Search(ctx, q)
	observe(span, OpSearch, start, err)

	next := settleSearch(items, err)
	if err != nil {
		c.logger.WarnContext(ctx, "search failed", slog.String("error", err.Error()))
	}

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "discarding superseded search result", slog.Uint64("seq", seq))
		next.Superseded = true
		return next
	}
	c.state = next
	c.mu.Unlock()
	logTransition(ctx, c.logger, "search", domain.StatusPending, next.Status)

	if c.events != nil {
		if err := c.events.PublishSearchPerformed(ctx, q, next.Status, len(next.Items)); err != nil {
			c.logger.WarnContext(ctx, "failed to publish search event", slog.String("error", err.Error()))
		}
	}
	return next
}

func settleSearch(items []domain.Item, err error) SearchState {
	if err != nil {
		return SearchState{
			Status:  domain.StatusFailed,
			Items:   []domain.Item{},
			Message: domain.MsgFetchFailed,
			Err:     err,
		}
	}
	items = renderable(items)
	if len(items) == 0 {
		return SearchState{Status: domain.StatusEmpty, Items: items, Message: domain.MsgNothingFound}
	}
	return SearchState{Status: domain.StatusSuccess, Items: items}
}
