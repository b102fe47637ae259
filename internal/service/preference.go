package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// PreferenceState is a snapshot of the preference view. NothingFound is
// set both when the backend returned two empty channels and when no
// history reference was available.
type PreferenceState struct {
	Status       domain.Status `json:"status"`
	ByImage      []domain.Item `json:"by_image"`
	ByText       []domain.Item `json:"by_text"`
	NothingFound bool          `json:"nothing_found"`
	Message      string        `json:"message,omitempty"`

	MissingContext bool  `json:"-"`
	Err            error `json:"-"`
}

// PreferenceResolver resolves a history reference into the two
// recommendation channels.
type PreferenceResolver struct {
	backend Backend
	logger  *slog.Logger
}

// NewPreferenceResolver creates a preference resolver.
func NewPreferenceResolver(backend Backend, logger *slog.Logger) *PreferenceResolver {
	return &PreferenceResolver{backend: backend, logger: logger}
}

// Resolve issues a single preference request for ref. An absent ref
// settles immediately without any request.
func (r *PreferenceResolver) Resolve(ctx context.Context, ref domain.HistoryRef) PreferenceState {
	if ref.Absent() {
		logTransition(ctx, r.logger, "preference", domain.StatusIdle, domain.StatusEmpty)
		return PreferenceState{
			Status:         domain.StatusEmpty,
			ByImage:        []domain.Item{},
			ByText:         []domain.Item{},
			NothingFound:   true,
			Message:        domain.MsgNothingFound,
			MissingContext: true,
		}
	}

	logTransition(ctx, r.logger, "preference", domain.StatusIdle, domain.StatusPending)

	sku, err := ref.SKU()
	if err != nil {
		return r.fail(ctx, apperrors.InvalidInput(err.Error()))
	}

	ctx, span := tracer().Start(ctx, "preference.resolve")
	span.SetAttributes(attribute.Int("preference.sku", sku))
	defer span.End()

	start := time.Now()
	res, err := r.backend.Preference(ctx, sku)
	observe(span, OpPreference, start, err)
	if err != nil {
		return r.fail(ctx, err)
	}

	res = res.Normalized()
	st := PreferenceState{
		Status:  domain.StatusSuccess,
		ByImage: renderable(res.ByImage),
		ByText:  renderable(res.ByText),
	}
	if len(st.ByImage) == 0 && len(st.ByText) == 0 {
		st.Status = domain.StatusEmpty
		st.NothingFound = true
		st.Message = domain.MsgNothingFound
	}
	logTransition(ctx, r.logger, "preference", domain.StatusPending, st.Status)
	return st
}

func (r *PreferenceResolver) fail(ctx context.Context, err error) PreferenceState {
	r.logger.WarnContext(ctx, "preference resolution failed", slog.String("error", err.Error()))
	logTransition(ctx, r.logger, "preference", domain.StatusPending, domain.StatusFailed)
	return PreferenceState{
		Status:  domain.StatusFailed,
		ByImage: []domain.Item{},
		ByText:  []domain.Item{},
		Message: domain.MsgFetchFailed,
		Err:     err,
	}
}
