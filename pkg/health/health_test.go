package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func serveReadiness(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("redis", down)

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestReadinessHandler(t *testing.T) {
	type check struct {
		name     string
		critical bool
		fn       Checker
	}
	tests := []struct {
		name       string
		checks     []check
		wantCode   int
		wantStatus Status
	}{
		{"no checks", nil, http.StatusOK, StatusUp},
		{
			"all up",
			[]check{{"redis", true, up}, {"recommend-api", false, up}, {"kafka", false, up}},
			http.StatusOK, StatusUp,
		},
		{
			"non-critical down degrades",
			[]check{{"redis", true, up}, {"kafka", false, down}},
			http.StatusOK, StatusDegraded,
		},
		{
			"several non-critical down",
			[]check{{"recommend-api", false, down}, {"auth-api", false, down}},
			http.StatusOK, StatusDegraded,
		},
		{
			"critical down",
			[]check{{"redis", true, down}, {"kafka", false, up}},
			http.StatusServiceUnavailable, StatusDown,
		},
		{
			"critical down wins over degraded",
			[]check{{"redis", true, down}, {"kafka", false, down}},
			http.StatusServiceUnavailable, StatusDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			for _, c := range tt.checks {
				if c.critical {
					h.RegisterCritical(c.name, c.fn)
				} else {
					h.RegisterNonCritical(c.name, c.fn)
				}
			}

			code, resp := serveReadiness(t, h)

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			require.Len(t, resp.Checks, len(tt.checks))
			for _, c := range tt.checks {
				assert.Equal(t, c.critical, resp.Checks[c.name].Critical, c.name)
			}
		})
	}
}

func TestReadinessHandler_ReportsErrors(t *testing.T) {
	h := NewHandler()
	h.RegisterNonCritical("kafka", down)

	_, resp := serveReadiness(t, h)

	assert.Equal(t, StatusDown, resp.Checks["kafka"].Status)
	assert.Equal(t, "connection refused", resp.Checks["kafka"].Error)
}

func TestRegister(t *testing.T) {
	h := NewHandler()
	h.Register("redis", up)
	h.Register("redis", down)

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	require.Len(t, resp.Checks, 1)
	assert.True(t, resp.Checks["redis"].Critical)
}

func TestReadinessHandler_ChecksHonorTimeout(t *testing.T) {
	h := NewHandler()
	h.timeout = 20 * time.Millisecond
	h.RegisterNonCritical("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, resp := serveReadiness(t, h)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Contains(t, resp.Checks["slow"].Error, "deadline exceeded")
}
