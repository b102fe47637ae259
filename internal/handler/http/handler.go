package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/validator"
)

// Validation tags for the catalog filters.
const (
	tagCatalogBrand = "catalog_brand"
	tagCatalogColor = "catalog_color"
)

// Authenticator is the auth collaborator. *auth.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, in auth.LoginInput) (*auth.Credentials, error)
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Credentials, error)
	Logout(ctx context.Context, token string) error
}

// Deps are the collaborators of the storefront handlers.
type Deps struct {
	Backend        service.Backend
	Events         service.EventPublisher
	Catalog        *service.CatalogAggregator
	Preferences    *service.PreferenceResolver
	Items          *service.ItemViewer
	Auth           Authenticator
	Sessions       *session.Manager
	Filters        domain.Catalog
	MaxUploadBytes int64
}

// StorefrontHandler serves the storefront JSON API.
type StorefrontHandler struct {
	deps   Deps
	logger *slog.Logger
}

// NewStorefrontHandler creates the handler and registers the catalog
// membership validations for the configured brand and color lists.
func NewStorefrontHandler(deps Deps, logger *slog.Logger) (*StorefrontHandler, error) {
	if err := validator.RegisterMembership(tagCatalogBrand, deps.Filters.BrandOptions()); err != nil {
		return nil, err
	}
	if err := validator.RegisterMembership(tagCatalogColor, deps.Filters.ColorOptions()); err != nil {
		return nil, err
	}
	return &StorefrontHandler{deps: deps, logger: logger}, nil
}

// filtersResponse lists the filter labels, "All" first.
type filtersResponse struct {
	Brands []string `json:"brands"`
	Colors []string `json:"colors"`
}

// GetFilters handles GET /api/v1/filters.
func (h *StorefrontHandler) GetFilters(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, filtersResponse{
		Brands: h.deps.Filters.BrandOptions(),
		Colors: h.deps.Filters.ColorOptions(),
	})
}

// writeView renders a settled view snapshot. Failed views carry their error
// alongside the snapshot and take the error's status.
func writeView(w http.ResponseWriter, r *http.Request, state any, status domain.Status, err error) {
	if status == domain.StatusFailed && err != nil {
		httputil.WriteDataWithError(w, r, state, err)
		return
	}
	httputil.WriteData(w, http.StatusOK, state)
}

func writeValidation(w http.ResponseWriter, err error) {
	httputil.WriteValidationError(w, err)
}

func writeInvalid(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: message},
	})
}
