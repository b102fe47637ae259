package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/validator"
)

// Multipart field names of the search form.
const (
	formText  = "text"
	formImage = "image"
	formBrand = "brand"
	formColor = "color"
)

// searchForm is the non-file part of the search form.
type searchForm struct {
	Text  string `form:"text" validate:"max=1000"`
	Brand string `form:"brand" validate:"catalog_brand"`
	Color string `form:"color" validate:"catalog_color"`
}

// Search handles POST /api/v1/search (multipart/form-data).
func (h *StorefrontHandler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(h.deps.MaxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			writeInvalid(w, "failed to parse multipart form: "+err.Error())
			return
		}
		if err := r.ParseForm(); err != nil {
			writeInvalid(w, "failed to parse form: "+err.Error())
			return
		}
	}

	form := searchForm{
		Text:  r.FormValue(formText),
		Brand: r.FormValue(formBrand),
		Color: r.FormValue(formColor),
	}
	if err := validator.Validate(form); err != nil {
		writeValidation(w, err)
		return
	}

	img, err := readImage(r)
	if err != nil {
		writeInvalid(w, err.Error())
		return
	}

	q := domain.Query{Text: form.Text, Image: img, Brand: form.Brand, Color: form.Color}
	client := service.NewSearchClient(h.deps.Backend, h.deps.Events, h.logger)
	st := client.Search(r.Context(), q)
	writeView(w, r, st, st.Status, st.Err)
}

// readImage returns the uploaded image, or nil when none was sent.
func readImage(r *http.Request) (*domain.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(formImage)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("read image: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &domain.ImageUpload{Filename: header.Filename, ContentType: contentType, Data: data}, nil
}

// GetCatalog handles GET /api/v1/catalog.
func (h *StorefrontHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	st := h.deps.Catalog.Load(r.Context(), h.deps.Filters.Brands)
	if st.Status == domain.StatusFailed {
		w.Header().Set("Cache-Control", "no-store")
	}
	writeView(w, r, st, st.Status, st.Err)
}

// GetPreferences handles GET /api/v1/preferences?history=<ref>. Without a
// history parameter the session user's history is used.
func (h *StorefrontHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	ref := domain.HistoryRef(r.URL.Query().Get("history"))
	if ref.Absent() {
		ref = session.FromContext(r.Context()).History()
	}

	st := h.deps.Preferences.Resolve(r.Context(), ref)
	writeView(w, r, st, st.Status, st.Err)
}

// GetItem handles GET /api/v1/items/{sku}?open=&image=&size=.
func (h *StorefrontHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	sku := domain.SKU(chi.URLParam(r, "sku"))
	if _, err := sku.Int(); err != nil {
		writeInvalid(w, err.Error())
		return
	}

	opts := service.ItemOptions{
		Open: r.URL.Query().Get("open"),
		Size: r.URL.Query().Get("size"),
	}
	if raw := r.URL.Query().Get("image"); raw != "" {
		i, err := strconv.Atoi(raw)
		if err != nil {
			writeInvalid(w, "image must be an integer index")
			return
		}
		opts.Image = i
	}

	st := h.deps.Items.View(r.Context(), sku, opts)
	if st.Status == domain.StatusSuccess {
		h.recordHistory(r, sku)
	}
	writeView(w, r, st, st.Status, st.Err)
}

// recordHistory makes sku the session user's history reference.
func (h *StorefrontHandler) recordHistory(r *http.Request, sku domain.SKU) {
	s := session.FromContext(r.Context())
	if s == nil || h.deps.Sessions == nil || s.User.History == domain.HistoryRef(sku) {
		return
	}
	user := s.User
	user.History = domain.HistoryRef(sku)
	if _, err := h.deps.Sessions.Update(r.Context(), s, user); err != nil {
		h.logger.WarnContext(r.Context(), "failed to record item history",
			slog.String("sku", sku.String()),
			slog.String("error", err.Error()),
		)
	}
}
