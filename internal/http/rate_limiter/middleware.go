package rate_limiter

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/everytools-api/internal/metrics"
)

// LimitedFunc writes the response for a rejected request.
type LimitedFunc func(w http.ResponseWriter, r *http.Request, d Decision)

// Middleware limits requests per client IP for the named route. Store failures
// are logged and the request is let through.
func Middleware(l Limiter, route string, policy Policy, log *zap.Logger, onLimited LimitedFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(policy) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := route + ":" + ClientIP(r)

			d, err := l.Allow(r.Context(), key, policy)
			if err != nil {
				log.Warn("rate limiter unavailable", zap.String("route", route), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
				log.Info("rate limit exceeded", zap.String("route", route), zap.String("key", key))
				metrics.RateLimitedTotal.WithLabelValues(route).Inc()
				onLimited(w, r, d)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the request's remote address without the port. Mount
// chi's RealIP middleware upstream to honour proxy headers.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
