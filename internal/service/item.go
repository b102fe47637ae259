package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// DetailView is a detail entry with its disclosure state.
type DetailView struct {
	domain.DetailEntry
	Expanded bool `json:"expanded"`
}

// ItemState is a snapshot of the item detail view.
type ItemState struct {
	Status        domain.Status `json:"status"`
	Item          *domain.Item  `json:"item,omitempty"`
	Details       []DetailView  `json:"details"`
	Expanded      string        `json:"expanded,omitempty"`
	SizeFitNote   string        `json:"size_fit_note,omitempty"`
	SelectedImage int           `json:"selected_image"`
	SelectedSize  string        `json:"selected_size,omitempty"`
	Message       string        `json:"message,omitempty"`
	Err           error         `json:"-"`
}

// ItemOptions are the UI selections applied to a freshly loaded item.
type ItemOptions struct {
	Open  string
	Image int
	Size  string
}

// ItemPage is the detail view of one item: its normalized description,
// the disclosure over it, and the gallery and size selections.
type ItemPage struct {
	item          *domain.Item
	entries       []domain.DetailEntry
	disclosure    *Disclosure
	selectedImage int
	selectedSize  string
}

// NewItemPage builds the page for item with the first image selected.
func NewItemPage(item *domain.Item) *ItemPage {
	entries := Normalize(item)
	return &ItemPage{
		item:       item,
		entries:    entries,
		disclosure: NewDisclosure(entries),
	}
}

// Toggle toggles one description section.
func (p *ItemPage) Toggle(title string) {
	p.disclosure.Toggle(title)
}

// SelectImage selects the gallery image at index i.
func (p *ItemPage) SelectImage(i int) error {
	if i < 0 || i >= len(p.item.Images) {
		return apperrors.InvalidInput(fmt.Sprintf("image index %d out of range [0,%d)", i, len(p.item.Images)))
	}
	p.selectedImage = i
	return nil
}

// SelectSize selects an in-stock size.
func (p *ItemPage) SelectSize(label string) error {
	if !p.item.InStockSize.Contains(label) {
		return apperrors.InvalidInput(fmt.Sprintf("size %q is not in stock", label))
	}
	p.selectedSize = label
	return nil
}

// SizeFitNote returns the normalized "Size & Fit" section, looked up by title.
func (p *ItemPage) SizeFitNote() string {
	for _, e := range p.entries {
		if e.Title == SizeFitTitle {
			return e.Content
		}
	}
	return ""
}

// State renders the page as a successful snapshot.
func (p *ItemPage) State() ItemState {
	details := make([]DetailView, 0, len(p.entries))
	for _, e := range p.entries {
		details = append(details, DetailView{DetailEntry: e, Expanded: p.disclosure.IsExpanded(e.Title)})
	}
	expanded, _ := p.disclosure.Expanded()
	return ItemState{
		Status:        domain.StatusSuccess,
		Item:          p.item,
		Details:       details,
		Expanded:      expanded,
		SizeFitNote:   p.SizeFitNote(),
		SelectedImage: p.selectedImage,
		SelectedSize:  p.selectedSize,
	}
}

// ItemViewer loads items and builds their detail pages.
type ItemViewer struct {
	backend Backend
	events  EventPublisher
	logger  *slog.Logger
}

// NewItemViewer creates an item viewer. events may be nil.
func NewItemViewer(backend Backend, events EventPublisher, logger *slog.Logger) *ItemViewer {
	return &ItemViewer{backend: backend, events: events, logger: logger}
}

// View fetches sku and applies opts. Invalid selections fail the view with
// an invalid-input error; a missing item fails it with the backend's message.
func (v *ItemViewer) View(ctx context.Context, sku domain.SKU, opts ItemOptions) ItemState {
	logTransition(ctx, v.logger, "item", domain.StatusIdle, domain.StatusPending)

	ctx, span := tracer().Start(ctx, "item.view")
	span.SetAttributes(attribute.String("item.sku", sku.String()))
	defer span.End()

	start := time.Now()
	item, err := v.backend.GetItem(ctx, sku)
	observe(span, OpGetItem, start, err)
	if err != nil {
		return v.fail(ctx, err)
	}
	if !item.Renderable() {
		return v.fail(ctx, apperrors.NotFoundMessage(fmt.Sprintf("item %s has no images", sku)))
	}

	page := NewItemPage(item)
	if opts.Open != "" {
		page.Toggle(opts.Open)
	}
	if opts.Image != 0 {
		if err := page.SelectImage(opts.Image); err != nil {
			return v.fail(ctx, err)
		}
	}
	if opts.Size != "" {
		if err := page.SelectSize(opts.Size); err != nil {
			return v.fail(ctx, err)
		}
	}

	if v.events != nil {
		if err := v.events.PublishItemViewed(ctx, item); err != nil {
			v.logger.WarnContext(ctx, "failed to publish item event", slog.String("error", err.Error()))
		}
	}

	st := page.State()
	logTransition(ctx, v.logger, "item", domain.StatusPending, st.Status)
	return st
}

func (v *ItemViewer) fail(ctx context.Context, err error) ItemState {
	msg := domain.MsgItemFailed
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status < 500 {
		msg = appErr.Message
	}
	v.logger.WarnContext(ctx, "item view failed", slog.String("error", err.Error()))
	logTransition(ctx, v.logger, "item", domain.StatusPending, domain.StatusFailed)
	return ItemState{
		Status:  domain.StatusFailed,
		Details: []DetailView{},
		Message: msg,
		Err:     err,
	}
}
