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

	"github.com/macrolens/tracker/config"
	httpDelivery "github.com/macrolens/tracker/internal/delivery/http"
	"github.com/macrolens/tracker/internal/domain"
	"github.com/macrolens/tracker/internal/infrastructure/cache"
	"github.com/macrolens/tracker/internal/infrastructure/dsld"
	"github.com/macrolens/tracker/internal/infrastructure/logger"
	"github.com/macrolens/tracker/internal/infrastructure/metrics"
	"github.com/macrolens/tracker/internal/infrastructure/openfoodfacts"
	"github.com/macrolens/tracker/internal/infrastructure/persistence"
	"github.com/macrolens/tracker/internal/infrastructure/qrcode"
	"github.com/macrolens/tracker/internal/infrastructure/ratelimit"
	"github.com/macrolens/tracker/internal/infrastructure/usda"
	"github.com/macrolens/tracker/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting MacroLens tracker",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("cache", cfg.Cache.Type),
		zap.String("ratelimit", cfg.RateLimit.Backend))

	// Storage
	db, err := persistence.Open(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	foods := persistence.NewFoodRepository(db)
	meals := persistence.NewMealRepository(db)
	logs := persistence.NewLogRepository(db)
	codes := persistence.NewPairingRepository(db)
	devices := persistence.NewDeviceTokenRepository(db)

	previewCache, closeCache, err := newCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	defer closeCache()

	limiters, closeLimiters, err := newLimiters(cfg.RateLimit)
	if err != nil {
		return err
	}
	defer closeLimiters()

	// Observability
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// External sources
	usdaClient := usda.NewClient(cfg.USDA.APIKey, cfg.USDA.BaseURL, cfg.USDA.Timeout, log)
	offClient := openfoodfacts.NewClient(cfg.OpenFoodFacts.BaseURL, cfg.OpenFoodFacts.UserAgent, cfg.OpenFoodFacts.Timeout, log)
	dsldClient := dsld.NewClient(cfg.DSLD.BaseURL, cfg.DSLD.Timeout, log)

	// Usecases
	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		MinConfidenceThreshold: cfg.Matching.MinConfidenceThreshold,
		EnableFuzzyMatching:    cfg.Matching.EnableFuzzyMatching,
		FuzzyEditDistance:      cfg.Matching.FuzzyEditDistance,
	}, log)
	ownership := usecase.NewOwnershipService(foods, log)
	pairing := usecase.NewPairingService(codes, devices, usecase.PairingLimiters{
		Request: limiters.pairingRequest,
		Status:  limiters.pairingStatus,
		Claim:   limiters.pairingClaim,
	}, qrcode.NewGenerator(256, "M"), usecase.PairingConfig{
		CodeTTL:  cfg.Pairing.CodeTTL,
		ClaimURL: cfg.Pairing.ClaimURL,
	}, m, log)

	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Barcode: usecase.NewBarcodeService(foods, offClient, dsldClient, usdaClient, matcher, m, log),
		Search: usecase.NewSearchService(foods, usdaClient, previewCache, limiters.search,
			usecase.SearchServiceConfig{CacheTTL: cfg.Cache.TTL}, m, log),
		Foods:   usecase.NewFoodService(foods, log),
		Logs:    usecase.NewLogService(foods, meals, logs, ownership, log),
		Pairing: pairing,
	}, log)

	router := httpDelivery.SetupRouter(cfg, handler, httpDelivery.RouterDeps{
		Devices: pairing,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Logger:  log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newCache builds the USDA preview cache
func newCache(ctx context.Context, cfg config.CacheConfig) (domain.CacheRepository, func(), error) {
	if cfg.Type == "redis" {
		c, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect cache: %w", err)
		}
		return c, func() { c.Close() }, nil
	}
	c := cache.NewMemoryCache()
	return c, func() { c.Close() }, nil
}

type limiterSet struct {
	pairingRequest domain.RateLimiter
	pairingStatus  domain.RateLimiter
	pairingClaim   domain.RateLimiter
	search         domain.RateLimiter
}

// newLimiters builds one limiter per policy, all sharing a backend
func newLimiters(cfg config.RateLimitConfig) (*limiterSet, func(), error) {
	if cfg.Backend != "redis" {
		return &limiterSet{
			pairingRequest: ratelimit.NewMemoryLimiter(cfg.PairingRequestPerIP, cfg.Window),
			pairingStatus:  ratelimit.NewMemoryLimiter(cfg.PairingStatusPerToken, cfg.Window),
			pairingClaim:   ratelimit.NewMemoryLimiter(cfg.PairingClaimPerUser, cfg.Window),
			search:         ratelimit.NewMemoryLimiter(cfg.SearchPerUser, cfg.Window),
		}, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse rate limit redis url: %w", err)
	}
	client := redis.NewClient(opts)
	closeClient := func() { client.Close() }

	set := &limiterSet{}
	for _, p := range []struct {
		dst   *domain.RateLimiter
		limit int
	}{
		{&set.pairingRequest, cfg.PairingRequestPerIP},
		{&set.pairingStatus, cfg.PairingStatusPerToken},
		{&set.pairingClaim, cfg.PairingClaimPerUser},
		{&set.search, cfg.SearchPerUser},
	} {
		limiter, err := ratelimit.NewRedisLimiter(client, p.limit, cfg.Window)
		if err != nil {
			closeClient()
			return nil, nil, fmt.Errorf("build rate limiter: %w", err)
		}
		*p.dst = limiter
	}
	return set, closeClient, nil
}
