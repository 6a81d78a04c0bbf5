package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/rogerio-castellano/everytools-api/docs"
	"github.com/rogerio-castellano/everytools-api/internal/auth"
	"github.com/rogerio-castellano/everytools-api/internal/http/cache"
	"github.com/rogerio-castellano/everytools-api/internal/http/handlers"
	rl "github.com/rogerio-castellano/everytools-api/internal/http/rate_limiter"
)

// RouterConfig carries the cross-cutting services mounted around the handlers.
type RouterConfig struct {
	Limiter          rl.Limiter
	ScraperPolicy    rl.Policy
	RandomizerPolicy rl.Policy

	Cache      cache.Store
	DefaultTTL time.Duration
	IndexTTL   time.Duration

	// Auth mounts the admin group when set.
	Auth *auth.Service
	Log  *zap.Logger
}

func NewRouter(h *handlers.Handlers, cfg RouterConfig) http.Handler {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(Instrument(log))
	r.Use(middleware.Recoverer)

	r.NotFound(h.NotFoundHandler)
	r.MethodNotAllowed(h.MethodNotAllowedHandler)

	limit := func(route string, p rl.Policy) func(http.Handler) http.Handler {
		return rl.Middleware(cfg.Limiter, route, p, log, h.RateLimitedHandler)
	}
	cached := func(ttl time.Duration) func(http.Handler) http.Handler {
		return cache.Middleware(cfg.Cache, ttl, log)
	}

	r.With(cached(cfg.IndexTTL)).Get("/", h.IndexHandler)

	scrapers := []struct {
		route, canonical, alias string
		handler                 http.HandlerFunc
	}{
		{"mediafire", "/api/url-generator/v1/mediafire-file", "/url-generator/mediafire", h.MediaFireFileHandler},
		{"googledrive", "/api/url-generator/v1/googledrive-file", "/url-generator/googledrive", h.GoogleDriveFileHandler},
		{"gofile", "/api/url-generator/v1/gofile-file", "/url-generator/gofile", h.GofileFileHandler},
		{"aliexpress-product", "/api/wrapper/v1/aliexpress-product", "/wrapper/aliexpress-product", h.AliExpressProductHandler},
	}
	for _, s := range scrapers {
		chain := r.With(limit(s.route, cfg.ScraperPolicy), cached(cfg.DefaultTTL))
		chain.Get(s.canonical, s.handler)
		chain.Get(s.alias, s.handler)
	}

	randomizers := []struct {
		route, canonical, alias string
		handler                 http.HandlerFunc
	}{
		{"random-int-number", "/api/randomizer/v1/random-int-number", "/randomizer/random-int-number", h.RandomIntHandler},
		{"random-float-number", "/api/randomizer/v1/random-float-number", "/randomizer/random-float-number", h.RandomFloatHandler},
	}
	for _, s := range randomizers {
		chain := r.With(limit(s.route, cfg.RandomizerPolicy))
		chain.Get(s.canonical, s.handler)
		chain.Get(s.alias, s.handler)
	}

	r.Get("/healthz", h.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if cfg.Auth != nil {
		r.Route("/admin", func(ar chi.Router) {
			ar.Post("/login", h.LoginHandler)
			ar.Group(func(pr chi.Router) {
				pr.Use(cfg.Auth.RequireRole(auth.RoleAdmin, h.Reject))
				pr.Delete("/cache", h.FlushCacheHandler)
				pr.Delete("/rate-limits", h.ResetRateLimitsHandler)
			})
		})
	}

	return r
}
