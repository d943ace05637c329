package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/macrolens/tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSearchService(foods *MockFoodRepository, client *MockUSDAClient, cache domain.CacheRepository, limiter *MockRateLimiter) *SearchService {
	return NewSearchService(foods, client, cache, limiter, SearchServiceConfig{}, nil, nil)
}

func TestSearchService_DeduplicatesAgainstLocal(t *testing.T) {
	local := &domain.Food{ID: "local-oats", Name: "Oats", Brand: domain.StringPtr("Acme"), Calories: 150, Source: domain.SourceLocal}
	foods := NewMockFoodRepository(local)
	client := NewMockUSDAClient()
	acme := usdaFood("OATS", domain.USDADataTypeBranded, 389, 16.9, 66.3, 6.9)
	acme.BrandName = "acme"
	other := usdaFood("OAT MILK", domain.USDADataTypeBranded, 48, 1, 7, 1.5)
	client.responses["oats"] = []domain.USDAFood{acme, other}

	svc := newSearchService(foods, client, NewMockCacheRepository(), NewMockRateLimiter(10))

	results, err := svc.Search(context.Background(), "oats", "user-1")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "local-oats", results[0].ID, "local result wins the (name, brand) collision")
	assert.Equal(t, "Oat Milk", results[1].Name)
	assert.True(t, results[1].IsPreview())
}

func TestSearchService_ShortQuery(t *testing.T) {
	svc := newSearchService(NewMockFoodRepository(), NewMockUSDAClient(), NewMockCacheRepository(), NewMockRateLimiter(10))

	for _, q := range []string{"", "a", "  b  "} {
		_, err := svc.Search(context.Background(), q, "user-1")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest, "query %q", q)
	}
}

func TestSearchService_PartialFailures(t *testing.T) {
	t.Run("usda failure keeps local results", func(t *testing.T) {
		foods := NewMockFoodRepository(&domain.Food{ID: "1", Name: "Banana", Calories: 89})
		client := NewMockUSDAClient()
		client.err = domain.ErrUSDAAPIFailure
		svc := newSearchService(foods, client, NewMockCacheRepository(), NewMockRateLimiter(10))

		results, err := svc.Search(context.Background(), "banana", "user-1")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "1", results[0].ID)
	})

	t.Run("local failure keeps usda previews", func(t *testing.T) {
		foods := NewMockFoodRepository()
		foods.findError = fmt.Errorf("connection reset")
		client := NewMockUSDAClient()
		client.responses["banana"] = []domain.USDAFood{usdaFood("BANANAS, RAW", domain.USDADataTypeFoundation, 89, 1.1, 22.8, 0.3)}
		svc := newSearchService(foods, client, NewMockCacheRepository(), NewMockRateLimiter(10))

		results, err := svc.Search(context.Background(), "banana", "user-1")

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "Bananas, Raw", results[0].Name)
	})
}

func TestSearchService_RateLimited(t *testing.T) {
	client := NewMockUSDAClient()
	client.responses["apple"] = []domain.USDAFood{usdaFood("APPLE", domain.USDADataTypeFoundation, 52, 0.3, 14, 0.2)}
	limiter := NewMockRateLimiter(0)
	svc := newSearchService(NewMockFoodRepository(), client, nil, limiter)

	results, err := svc.Search(context.Background(), "apple", "user-1")

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, client.queryCount())
	assert.Equal(t, 1, limiter.counts["search:usda:user-1"])
}

func TestSearchService_LimiterFailureAdmitsSearch(t *testing.T) {
	client := NewMockUSDAClient()
	client.responses["apple"] = []domain.USDAFood{usdaFood("APPLE", domain.USDADataTypeFoundation, 52, 0.3, 14, 0.2)}
	limiter := NewMockRateLimiter(10)
	limiter.err = fmt.Errorf("redis: connection refused")
	svc := newSearchService(NewMockFoodRepository(), client, nil, limiter)

	results, err := svc.Search(context.Background(), "apple", "user-1")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Apple", results[0].Name)
	assert.Equal(t, 1, client.queryCount())
}

func TestSearchService_CachesPreviews(t *testing.T) {
	client := NewMockUSDAClient()
	client.responses["Greek Yogurt"] = []domain.USDAFood{usdaFood("GREEK YOGURT", domain.USDADataTypeBranded, 97, 9, 3.6, 5)}
	cache := NewMockCacheRepository()
	svc := newSearchService(NewMockFoodRepository(), client, cache, NewMockRateLimiter(10))

	first, err := svc.Search(context.Background(), "Greek Yogurt", "user-1")
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), "  greek   YOGURT ", "user-2")
	require.NoError(t, err)

	assert.Equal(t, 1, client.queryCount(), "the normalized query is served from cache")
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.Equal(t, first[0].Calories, second[0].Calories)
	_, ok := cache.data["usda:search:greek yogurt"]
	assert.True(t, ok)
}

func TestSearchService_CapsResults(t *testing.T) {
	var local []*domain.Food
	for i := 0; i < 20; i++ {
		local = append(local, &domain.Food{ID: fmt.Sprintf("l%d", i), Name: fmt.Sprintf("Rice %d", i), Calories: 130})
	}
	client := NewMockUSDAClient()
	for i := 0; i < 10; i++ {
		client.responses["rice"] = append(client.responses["rice"],
			usdaFood(fmt.Sprintf("RICE VARIETY %d", i), domain.USDADataTypeBranded, 130, 2.7, 28, 0.3))
	}
	svc := newSearchService(NewMockFoodRepository(local...), client, nil, NewMockRateLimiter(10))

	results, err := svc.Search(context.Background(), "rice", "user-1")

	require.NoError(t, err)
	require.Len(t, results, MaxSearchResults)
	assert.Equal(t, "l0", results[0].ID)
	assert.Equal(t, "l19", results[19].ID)
	assert.True(t, results[20].IsPreview())
}

func TestMergeResults(t *testing.T) {
	local := []*domain.Food{{ID: "1", Name: "Oats", Brand: domain.StringPtr("Acme")}}
	previews := []*domain.Food{
		{Name: "OATS", Brand: domain.StringPtr("ACME")},
		{Name: "Oats"},
		{Name: "oats"},
	}

	merged := mergeResults(local, previews, 25)

	require.Len(t, merged, 2)
	assert.Equal(t, "1", merged[0].ID)
	assert.Equal(t, "Oats", merged[1].Name)
	assert.Nil(t, merged[1].Brand)
}
