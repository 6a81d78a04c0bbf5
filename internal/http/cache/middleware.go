package cache

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/everytools-api/internal/metrics"
)

const HeaderCache = "X-Cache"

// Key identifies a response by host and full request URI, query string included.
func Key(r *http.Request) string {
	return r.Method + " " + r.Host + r.URL.RequestURI()
}

func cacheable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusTooManyRequests
}

// Middleware serves GET responses from the store for ttl after the first
// computation. Store failures are logged and bypassed.
func Middleware(store Store, ttl time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := Key(r)
			entry, found, err := store.Get(r.Context(), key)
			if err != nil {
				log.Warn("response cache read failed", zap.String("key", key), zap.Error(err))
			}
			if found {
				metrics.CacheResultsTotal.WithLabelValues("hit").Inc()
				if entry.ContentType != "" {
					w.Header().Set("Content-Type", entry.ContentType)
				}
				w.Header().Set(HeaderCache, "HIT")
				w.WriteHeader(entry.Status)
				_, _ = w.Write(entry.Body)
				return
			}

			metrics.CacheResultsTotal.WithLabelValues("miss").Inc()
			w.Header().Set(HeaderCache, "MISS")

			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				if ww.BytesWritten() == 0 {
					// the handler sent nothing, there is no response worth replaying
					return
				}
				status = http.StatusOK
			}
			if !cacheable(status) {
				return
			}

			entry = Entry{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
			}
			if err := store.Set(r.Context(), key, entry, ttl); err != nil {
				log.Warn("response cache write failed", zap.String("key", key), zap.Error(err))
			}
		})
	}
}
