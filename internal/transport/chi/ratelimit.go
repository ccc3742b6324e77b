package chi

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/citydesk/planqa/internal/domain"
	"github.com/citydesk/planqa/internal/ratelimit"
)

// RateLimitMiddleware returns a middleware that admits requests through the
// limiter, keyed by client IP. Health and metrics are exempt. Limiter
// backend errors are logged and the request admitted.
func RateLimitMiddleware(limiter ratelimit.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			ok, err := limiter.Allow(r.Context(), clientKey(r))
			if err != nil {
				logger.Warn("rate limiter backend error", zap.Error(err))
			}
			if !ok {
				writeError(w, http.StatusTooManyRequests, CodeRateLimited,
					domain.ErrRateLimited.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey extracts the client IP, dropping the ephemeral port so one
// client maps to one counter.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
