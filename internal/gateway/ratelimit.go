package gateway

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/flemzord/ctxwin/internal/security"
)

// rateLimitMiddleware rejects clients that exhausted their limits with 429.
func rateLimitMiddleware(limiter *security.RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientKey(r)
			if err := limiter.Allow(client); err != nil {
				if errors.Is(err, security.ErrRateLimited) {
					logger.Warn("gateway: rate limited", "client", client, "path", r.URL.Path)
					writeError(w, http.StatusTooManyRequests, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies the caller by remote host.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
