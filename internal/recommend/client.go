package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const serviceName = "recommend-api"

// Client calls the recommendation backend.
type Client struct {
	httpClient httpclient.Doer
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a recommendation backend client. Both httpclient.Client
// and httpclient.CircuitBreakerClient can be passed as doer.
func NewClient(doer httpclient.Doer, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: doer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

type brandRequest struct {
	Brand string `json:"brand"`
}

type itemResponse struct {
	domain.Item
	Error string `json:"error"`
}

// Search submits one multi-modal query and returns the matched items in
// backend order.
func (c *Client) Search(ctx context.Context, q domain.Query) ([]domain.Item, error) {
	payload, err := BuildSearchPayload(q)
	if err != nil {
		return nil, fmt.Errorf("build search payload: %w", err)
	}

	var items []domain.Item
	if err := c.post(ctx, "/search", payload.ContentType, payload.Body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ProductsByBrand returns the backend's items for one brand.
func (c *Client) ProductsByBrand(ctx context.Context, brand string) ([]domain.Item, error) {
	body, err := json.Marshal(brandRequest{Brand: brand})
	if err != nil {
		return nil, fmt.Errorf("marshal brand request: %w", err)
	}

	var items []domain.Item
	if err := c.post(ctx, "/products-by-brand", "application/json", body, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Preference returns the image and text recommendation channels for the
// item identified by sku. Missing channels come back as empty slices.
func (c *Client) Preference(ctx context.Context, sku int) (domain.PreferenceResult, error) {
	path := "/preference?" + url.Values{"sku": {strconv.Itoa(sku)}}.Encode()

	var result domain.PreferenceResult
	if err := c.post(ctx, path, "application/json", nil, &result); err != nil {
		return domain.PreferenceResult{}, err
	}
	return result.Normalized(), nil
}

// GetItem fetches a single item. The backend answers an unknown SKU with
// 200 and an {"error": "..."} body, which is returned as a not-found error.
func (c *Client) GetItem(ctx context.Context, sku domain.SKU) (*domain.Item, error) {
	n, err := sku.Int()
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/?"+url.Values{"sku": {strconv.FormatInt(n, 10)}}.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create get item request: %w", err)
	}

	var resp itemResponse
	if err := c.do(ctx, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, apperrors.NotFoundMessage(resp.Error)
	}
	if resp.SKU == "" {
		resp.SKU = sku
	}
	return &resp.Item, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "recommendation backend call failed",
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()),
		)
		return httpclient.TranslateError(err, serviceName)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.TransportFailure(serviceName+": malformed response",
			fmt.Errorf("decode %s response: %w", req.URL.Path, err))
	}
	return nil
}
