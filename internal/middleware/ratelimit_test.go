package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRateLimit_RequestsWithinLimitPass(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 10, 10, newTestLogger())(okHandler())

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serveFrom(handler, "192.168.1.1:12345").Code, "request %d should pass", i+1)
	}
}

func TestRateLimit_ExceedingBurstReturns429(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 1, 1, newTestLogger())(okHandler())

	assert.Equal(t, http.StatusOK, serveFrom(handler, "172.16.0.1:12345").Code)

	rr := serveFrom(handler, "172.16.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "RATE_LIMITED")
	assert.Contains(t, rr.Body.String(), "too many requests")
}

func TestRateLimit_DifferentIPsIndependent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 1, 2, newTestLogger())(okHandler())

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:12345").Code)
	}
	assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.2:12345").Code)
}

func TestRateLimit_CountsRejections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(ctx, 1, 1, newTestLogger())(okHandler())

	before := testutil.ToFloat64(rateLimitedTotal)
	serveFrom(handler, "172.16.9.9:1")
	serveFrom(handler, "172.16.9.9:1")
	assert.Equal(t, before+1, testutil.ToFloat64(rateLimitedTotal))
}

func TestBuckets_SweepDropsIdleClients(t *testing.T) {
	b := newBuckets(1, 1)
	now := time.Now()
	b.now = func() time.Time { return now }
	b.allow("10.0.0.1")

	b.now = func() time.Time { return now.Add(30 * time.Second) }
	b.allow("10.0.0.2")

	b.now = func() time.Time { return now.Add(75 * time.Second) }
	assert.Equal(t, 1, b.sweep(time.Minute))
}

func TestBuckets_RetryAfter(t *testing.T) {
	assert.Equal(t, "1", newBuckets(10, 1).retryAfter())
	assert.Equal(t, "1", newBuckets(1, 1).retryAfter())
	assert.Equal(t, "60", newBuckets(0, 1).retryAfter())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.50"}, "203.0.113.50"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "garbage, 203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.42"}, "198.51.100.42"},
		{"remote addr", nil, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:12345"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
