package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/everytools-api/internal/aliexpress"
	"github.com/rogerio-castellano/everytools-api/internal/auth"
	"github.com/rogerio-castellano/everytools-api/internal/clock"
	"github.com/rogerio-castellano/everytools-api/internal/config"
	"github.com/rogerio-castellano/everytools-api/internal/fetch"
	apihttp "github.com/rogerio-castellano/everytools-api/internal/http"
	"github.com/rogerio-castellano/everytools-api/internal/http/cache"
	"github.com/rogerio-castellano/everytools-api/internal/http/handlers"
	rl "github.com/rogerio-castellano/everytools-api/internal/http/rate_limiter"
	"github.com/rogerio-castellano/everytools-api/internal/logger"
	"github.com/rogerio-castellano/everytools-api/internal/randomizer"
	"github.com/rogerio-castellano/everytools-api/internal/redissvc"
	"github.com/rogerio-castellano/everytools-api/internal/urlgen"
)

const (
	visitorCleanupInterval = 10 * time.Minute
	visitorMaxIdle         = 24 * time.Hour
)

// @title EveryTools API
// @version 1.0
// @description URL generators, product wrapper and randomizers behind one rate limited JSON API.
// @host localhost:8452
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	var redisService *redissvc.RedisService
	if cfg.Cache.Backend == config.BackendRedis || cfg.RateLimit.Backend == config.BackendRedis {
		rs, err := redissvc.NewRedisService(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("could not connect to Redis: %w", err)
		}
		defer rs.Close()
		redisService = rs
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		store = cache.NewRedisStore(redisService.Rdb())
	default:
		store = cache.NewMemoryStore(clock.RealClock{})
	}

	var limiter rl.Limiter
	switch cfg.RateLimit.Backend {
	case config.BackendRedis:
		limiter = rl.NewRedisLimiter(redisService.Rdb(), clock.RealClock{})
	default:
		ml := rl.NewMemoryLimiter(clock.RealClock{})
		go ml.StartVisitorCleanupLoop(ctx, visitorCleanupInterval, visitorMaxIdle)
		limiter = ml
	}

	// Both strings were checked by config.Load.
	scraperPolicy, _ := rl.ParsePolicy(cfg.RateLimit.Scrapers)
	randomizerPolicy, _ := rl.ParsePolicy(cfg.RateLimit.Randomizers)

	fetcher := fetch.NewClient(fetch.Options{
		Timeout:      cfg.Upstream.Timeout,
		UserAgent:    cfg.Upstream.UserAgent,
		MaxBodyBytes: cfg.Upstream.MaxBodyBytes,

		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Burst:             cfg.Upstream.Burst,
	})

	var authService *auth.Service
	if cfg.Admin.Enabled() {
		authService = auth.NewService(cfg.Admin.Username, cfg.Admin.PasswordHash, cfg.Admin.JWTSecret)
	}

	deps := handlers.Deps{
		MediaFire:         urlgen.NewMediaFire(fetcher, ""),
		GoogleDrive:       urlgen.NewGoogleDrive(fetcher, ""),
		Gofile:            urlgen.NewGofile(fetcher, ""),
		AliExpress:        aliexpress.New(fetcher, "", cfg.Upstream.AliExpressCookie),
		Randomizer:        randomizer.New(nil),
		Cache:             store,
		Limiter:           limiter,
		Auth:              authService,
		GofileMaintenance: cfg.Routes.GofileMaintenance,
		ScraperLimits:     scraperPolicy.String(),
		RandomizerLimits:  randomizerPolicy.String(),
		Log:               log,
	}
	if redisService != nil {
		deps.Redis = redisService
	}

	router := apihttp.NewRouter(handlers.New(deps), apihttp.RouterConfig{
		Limiter:          limiter,
		ScraperPolicy:    scraperPolicy,
		RandomizerPolicy: randomizerPolicy,
		Cache:            store,
		DefaultTTL:       cfg.Cache.DefaultTTL,
		IndexTTL:         cfg.Cache.IndexTTL,
		Auth:             authService,
		Log:              log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running",
			zap.String("addr", srv.Addr),
			zap.String("cache_backend", cfg.Cache.Backend),
			zap.String("ratelimit_backend", cfg.RateLimit.Backend),
			zap.Bool("admin", authService != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
