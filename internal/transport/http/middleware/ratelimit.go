package httpmw

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/cwrk-planet/relay-service/internal/ratelimit"
	"github.com/cwrk-planet/relay-service/pkg/httputil"
)

// RateLimit limits requests per client IP within scope. Limiter errors other
// than ErrRateLimited let the request through.
func RateLimit(limiter ratelimit.Limiter, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientIP(r)
			if err := limiter.Allow(r.Context(), key); err != nil {
				if errors.Is(err, ratelimit.ErrRateLimited) {
					httputil.Failed(w, http.StatusTooManyRequests, "Too many requests")
					return
				}
				slog.Warn("rate limiter failed", "key", key, "err", err)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
