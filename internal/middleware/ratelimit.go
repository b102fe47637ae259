// Package middleware holds HTTP middleware specific to the storefront API.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
)

// idleTTL is how long a client's bucket survives without requests.
const idleTTL = 3 * time.Minute

var rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "storefront_rate_limited_requests_total",
	Help: "Requests rejected by the per-client rate limiter.",
})

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// buckets holds one token bucket per client IP.
type buckets struct {
	mu    sync.Mutex
	byIP  map[string]*bucket
	limit rate.Limit
	burst int
	now   func() time.Time
}

func newBuckets(rps, burst int) *buckets {
	return &buckets{
		byIP:  make(map[string]*bucket),
		limit: rate.Limit(rps),
		burst: burst,
		now:   time.Now,
	}
}

// allow takes a token from ip's bucket, creating it on first use.
func (b *buckets) allow(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bk, ok := b.byIP[ip]
	if !ok {
		bk = &bucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.byIP[ip] = bk
	}
	bk.lastSeen = b.now()
	return bk.limiter.AllowN(bk.lastSeen, 1)
}

// sweep drops buckets idle for longer than ttl and returns how many remain.
func (b *buckets) sweep(ttl time.Duration) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := b.now().Add(-ttl)
	for ip, bk := range b.byIP {
		if bk.lastSeen.Before(cutoff) {
			delete(b.byIP, ip)
		}
	}
	return len(b.byIP)
}

func (b *buckets) sweepEvery(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sweep(ttl)
		}
	}
}

// retryAfter is the wait, in whole seconds, for one token at limit.
func (b *buckets) retryAfter() string {
	if b.limit <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(b.limit))))
}

// RateLimit allows each client IP rps requests per second with the given
// burst. Excess requests get 429 RATE_LIMITED and a Retry-After header. Idle
// buckets are swept until ctx is done.
func RateLimit(ctx context.Context, rps, burst int, l *slog.Logger) func(http.Handler) http.Handler {
	b := newBuckets(rps, burst)
	go b.sweepEvery(ctx, idleTTL)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if b.allow(ip) {
				next.ServeHTTP(w, r)
				return
			}

			rateLimitedTotal.Inc()
			l.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", b.retryAfter())
			httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:      "RATE_LIMITED",
					Message:   "too many requests",
					RequestID: logger.CorrelationIDFromContext(r.Context()),
				},
			})
		})
	}
}

// clientIP prefers the first parseable X-Forwarded-For entry, then
// X-Real-IP, then the RemoteAddr host.
func clientIP(r *http.Request) string {
	candidates := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	candidates = append(candidates, r.Header.Get("X-Real-IP"))
	for _, c := range candidates {
		if ip := net.ParseIP(strings.TrimSpace(c)); ip != nil {
			return ip.String()
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
