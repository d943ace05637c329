package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/macrolens/tracker/internal/domain"
	"github.com/macrolens/tracker/internal/infrastructure/metrics"
	"github.com/macrolens/tracker/internal/infrastructure/usda"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxSearchResults caps the merged result list
	MaxSearchResults = 25
	// MinSearchQueryLength is the shortest accepted query after trimming
	MinSearchQueryLength = 2

	defaultPreviewCacheTTL = 24 * time.Hour
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL time.Duration
}

// SearchService merges local foods with USDA previews
type SearchService struct {
	foods      domain.FoodRepository
	usdaClient domain.USDAClient
	cache      domain.CacheRepository
	limiter    domain.RateLimiter
	cacheTTL   time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewSearchService creates a new search service with dependencies
func NewSearchService(
	foods domain.FoodRepository,
	usdaClient domain.USDAClient,
	cache domain.CacheRepository,
	limiter domain.RateLimiter,
	config SearchServiceConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultPreviewCacheTTL
	}

	return &SearchService{
		foods:      foods,
		usdaClient: usdaClient,
		cache:      cache,
		limiter:    limiter,
		cacheTTL:   cacheTTL,
		metrics:    m,
		logger:     logger.Named("search"),
	}
}

// Search runs the local and USDA searches concurrently and merges them.
// A failing side contributes nothing; only a too-short query is an error.
func (s *SearchService) Search(ctx context.Context, query, userID string) ([]*domain.Food, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < MinSearchQueryLength {
		return nil, fmt.Errorf("%w: query must be at least %d characters", domain.ErrInvalidRequest, MinSearchQueryLength)
	}

	var local, previews []*domain.Food

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		foods, err := s.foods.Search(gctx, query, userID, MaxSearchResults)
		if err != nil {
			s.logger.Warn("local search failed", zap.String("query", query), zap.Error(err))
			return nil
		}
		local = foods
		return nil
	})
	g.Go(func() error {
		previews = s.usdaPreviews(gctx, query, userID)
		return nil
	})
	_ = g.Wait()

	return mergeResults(local, previews, MaxSearchResults), nil
}

// usdaPreviews returns cached previews for the query or, when the caller is
// within the search limit, fresh ones from USDA
func (s *SearchService) usdaPreviews(ctx context.Context, query, userID string) []*domain.Food {
	cacheKey := previewCacheKey(query)
	if cached, ok := s.cachedPreviews(ctx, cacheKey); ok {
		return cached
	}

	if !s.allowUSDA(ctx, userID) {
		return nil
	}

	start := time.Now()
	resp, err := s.usdaClient.SearchFoods(ctx, query)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.metrics.ObserveLookup(string(domain.SourceUSDA), metrics.OutcomeUnavailable, time.Since(start))
		s.logger.Debug("usda search unavailable", zap.String("query", query), zap.Error(err))
		return nil
	}

	var previews []*domain.Food
	if resp != nil {
		for _, hit := range resp.Foods {
			food := usda.ToFood(hit)
			if food == nil || food.IsEmpty() {
				continue
			}
			previews = append(previews, food)
		}
	}

	outcome := metrics.OutcomeFound
	if len(previews) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveLookup(string(domain.SourceUSDA), outcome, time.Since(start))

	s.storePreviews(ctx, cacheKey, previews)
	return previews
}

// allowUSDA checks the per-user search limit. A failing limiter admits the search.
func (s *SearchService) allowUSDA(ctx context.Context, userID string) bool {
	if s.limiter == nil {
		return true
	}
	result, err := s.limiter.Check(ctx, "search:usda:"+userID)
	if err != nil {
		s.logger.Warn("search rate limit check failed", zap.String("user_id", userID), zap.Error(err))
		return true
	}
	if !result.Allowed {
		s.metrics.IncRateLimitRejection("search")
		s.logger.Debug("usda search throttled", zap.String("user_id", userID))
		return false
	}
	return true
}

func (s *SearchService) cachedPreviews(ctx context.Context, key string) ([]*domain.Food, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("preview cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var previews []*domain.Food
	if err := json.Unmarshal(data, &previews); err != nil {
		s.logger.Warn("discarding corrupt preview cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return previews, true
}

func (s *SearchService) storePreviews(ctx context.Context, key string, previews []*domain.Food) {
	if s.cache == nil {
		return
	}
	if previews == nil {
		previews = []*domain.Food{}
	}
	data, err := json.Marshal(previews)
	if err != nil {
		return
	}
	// Log but don't fail if caching fails
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn("preview cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// previewCacheKey creates a normalized cache key. Format: "usda:search:{normalized_query}"
func previewCacheKey(query string) string {
	return "usda:search:" + normalizeKey(query)
}

// mergeResults keeps local results in order, appends previews whose
// lower(name)|lower(brand) key is unseen, and truncates to limit
func mergeResults(local, previews []*domain.Food, limit int) []*domain.Food {
	merged := make([]*domain.Food, 0, min(len(local)+len(previews), limit))
	seen := make(map[string]bool, len(local)+len(previews))

	for _, f := range local {
		seen[dedupKey(f)] = true
		merged = append(merged, f)
	}
	for _, f := range previews {
		key := dedupKey(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, f)
	}

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func dedupKey(f *domain.Food) string {
	return strings.ToLower(f.Name) + "|" + strings.ToLower(f.BrandOrEmpty())
}
