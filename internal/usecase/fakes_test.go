package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/macrolens/tracker/internal/domain"
)

// MockFoodRepository is an in-memory domain.FoodRepository
type MockFoodRepository struct {
	mu        sync.Mutex
	foods     []*domain.Food
	findError error
	creates   int
}

func NewMockFoodRepository(foods ...*domain.Food) *MockFoodRepository {
	return &MockFoodRepository{foods: foods}
}

func (m *MockFoodRepository) FindByID(_ context.Context, id string) (*domain.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.foods {
		if f.ID == id {
			return f.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockFoodRepository) FindByBarcode(_ context.Context, barcode, userID string) (*domain.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findError != nil {
		return nil, m.findError
	}
	var shared *domain.Food
	for _, f := range m.foods {
		if f.Barcode == nil || *f.Barcode != barcode {
			continue
		}
		if f.Ownership().IsOwnedBy(userID) {
			return f.Clone(), nil
		}
		if f.Ownership().IsShared() && shared == nil {
			shared = f
		}
	}
	if shared == nil {
		return nil, domain.ErrNotFound
	}
	return shared.Clone(), nil
}

func (m *MockFoodRepository) FindShared(_ context.Context, name string, brand *string, source domain.FoodSource) (*domain.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.foods {
		if f.Ownership().IsShared() && f.Name == name && f.Source == source && sameBrand(f.Brand, brand) {
			return f.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockFoodRepository) FindPersonalCopy(_ context.Context, userID, name string, source domain.FoodSource, brand *string) (*domain.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.foods {
		if f.Ownership().IsOwnedBy(userID) && f.Name == name && f.Source == source && sameBrand(f.Brand, brand) {
			return f.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockFoodRepository) Search(_ context.Context, query, userID string, limit int) ([]*domain.Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findError != nil {
		return nil, m.findError
	}
	q := strings.ToLower(query)
	var out []*domain.Food
	for _, f := range m.foods {
		visible := f.Ownership().IsShared() || f.Ownership().IsOwnedBy(userID)
		matches := strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.BrandOrEmpty()), q)
		if visible && matches {
			out = append(out, f.Clone())
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockFoodRepository) Create(_ context.Context, food *domain.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if food.Barcode != nil && food.UserID == nil {
		for _, f := range m.foods {
			if f.UserID == nil && f.Barcode != nil && *f.Barcode == *food.Barcode {
				return domain.ErrConflict
			}
		}
	}
	food.ID = uuid.NewString()
	m.foods = append(m.foods, food.Clone())
	m.creates++
	return nil
}

func (m *MockFoodRepository) UpdateNutrition(_ context.Context, food *domain.Food) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, f := range m.foods {
		if f.ID == food.ID {
			updated := food.Clone()
			updated.UserID = f.UserID
			m.foods[i] = updated
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockFoodRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.foods)
}

func sameBrand(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// MockOpenFoodFactsClient returns a fixed product or error
type MockOpenFoodFactsClient struct {
	product *domain.OFFProduct
	err     error
	calls   int
}

func (m *MockOpenFoodFactsClient) GetProduct(_ context.Context, _ string) (*domain.OFFProduct, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.product == nil {
		return nil, domain.ErrProductNotFound
	}
	return m.product, nil
}

// MockDSLDClient returns fixed hits and labels by id
type MockDSLDClient struct {
	hits      []domain.DSLDSearchHit
	labels    map[string]*domain.DSLDLabel
	searchErr error
	queries   []string
}

func (m *MockDSLDClient) Search(_ context.Context, query string) ([]domain.DSLDSearchHit, error) {
	m.queries = append(m.queries, query)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if len(m.hits) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return m.hits, nil
}

func (m *MockDSLDClient) GetLabel(_ context.Context, id string) (*domain.DSLDLabel, error) {
	if label, ok := m.labels[id]; ok {
		return label, nil
	}
	return nil, domain.ErrProductNotFound
}

// MockUSDAClient answers searches by exact query
type MockUSDAClient struct {
	mu        sync.Mutex
	responses map[string][]domain.USDAFood
	err       error
	queries   []string
}

func NewMockUSDAClient() *MockUSDAClient {
	return &MockUSDAClient{responses: make(map[string][]domain.USDAFood)}
}

func (m *MockUSDAClient) SearchFoods(_ context.Context, query string) (*domain.USDASearchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	foods := m.responses[query]
	if len(foods) == 0 {
		return nil, domain.ErrProductNotFound
	}
	return &domain.USDASearchResponse{Foods: foods, TotalHits: len(foods)}, nil
}

func (m *MockUSDAClient) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// MockCacheRepository is a map-backed domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *MockCacheRepository) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// MockRateLimiter allows the first limit checks per key
type MockRateLimiter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
	err    error
}

func NewMockRateLimiter(limit int) *MockRateLimiter {
	return &MockRateLimiter{limit: limit, counts: make(map[string]int)}
}

func (m *MockRateLimiter) Check(_ context.Context, key string) (*domain.RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.counts[key]++
	allowed := m.counts[key] <= m.limit
	remaining := m.limit - m.counts[key]
	if remaining < 0 {
		remaining = 0
	}
	return &domain.RateLimitResult{Allowed: allowed, Remaining: remaining, ResetAt: time.Now().Add(time.Minute)}, nil
}

// MockMealRepository stores meals with their item foods attached
type MockMealRepository struct {
	meals map[string]*domain.Meal
}

func NewMockMealRepository(meals ...*domain.Meal) *MockMealRepository {
	m := &MockMealRepository{meals: make(map[string]*domain.Meal)}
	for _, meal := range meals {
		m.meals[meal.ID] = meal
	}
	return m
}

func (m *MockMealRepository) Create(_ context.Context, meal *domain.Meal) error {
	meal.ID = uuid.NewString()
	m.meals[meal.ID] = meal
	return nil
}

func (m *MockMealRepository) FindByID(_ context.Context, id string) (*domain.Meal, error) {
	if meal, ok := m.meals[id]; ok {
		return meal, nil
	}
	return nil, domain.ErrNotFound
}

// MockLogRepository keeps log entries by id
type MockLogRepository struct {
	entries map[string]*domain.LogEntry
}

func NewMockLogRepository() *MockLogRepository {
	return &MockLogRepository{entries: make(map[string]*domain.LogEntry)}
}

func (m *MockLogRepository) Create(_ context.Context, entry *domain.LogEntry) error {
	entry.ID = uuid.NewString()
	c := *entry
	m.entries[entry.ID] = &c
	return nil
}

func (m *MockLogRepository) FindByID(_ context.Context, id string) (*domain.LogEntry, error) {
	if e, ok := m.entries[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockLogRepository) Update(_ context.Context, entry *domain.LogEntry) error {
	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *entry
	m.entries[entry.ID] = &c
	return nil
}

// MockPairingRepository keeps pairing codes by code
type MockPairingRepository struct {
	mu    sync.Mutex
	codes map[string]*domain.PairingCode
}

func NewMockPairingRepository() *MockPairingRepository {
	return &MockPairingRepository{codes: make(map[string]*domain.PairingCode)}
}

func (m *MockPairingRepository) Create(_ context.Context, code *domain.PairingCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.codes[code.Code]; ok {
		return domain.ErrConflict
	}
	c := *code
	m.codes[code.Code] = &c
	return nil
}

func (m *MockPairingRepository) FindByTokenHash(_ context.Context, tokenHash string) (*domain.PairingCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.codes {
		if p.TokenHash == tokenHash {
			c := *p
			return &c, nil
		}
	}
	return nil, domain.ErrPairingNotFound
}

func (m *MockPairingRepository) FindOpenByCode(_ context.Context, code string, now time.Time) (*domain.PairingCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.codes[code]
	if !ok || p.IsClaimed() || p.IsExpired(now) {
		return nil, domain.ErrPairingNotFound
	}
	c := *p
	return &c, nil
}

func (m *MockPairingRepository) MarkClaimed(_ context.Context, code, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.codes[code]
	if !ok || p.IsClaimed() {
		return false, nil
	}
	p.ClaimedBy = &userID
	return true, nil
}

func (m *MockPairingRepository) DeleteByTokenHash(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, p := range m.codes {
		if p.TokenHash == tokenHash {
			delete(m.codes, code)
		}
	}
	return nil
}

func (m *MockPairingRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for code, p := range m.codes {
		if !p.IsClaimed() && p.IsExpired(now) {
			delete(m.codes, code)
			n++
		}
	}
	return n, nil
}

// MockDeviceTokenRepository keeps device tokens by id
type MockDeviceTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.DeviceToken
}

func NewMockDeviceTokenRepository() *MockDeviceTokenRepository {
	return &MockDeviceTokenRepository{tokens: make(map[string]*domain.DeviceToken)}
}

func (m *MockDeviceTokenRepository) Create(_ context.Context, token *domain.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == token.TokenHash {
			return domain.ErrConflict
		}
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	c := *token
	m.tokens[token.ID] = &c
	return nil
}

func (m *MockDeviceTokenRepository) FindByTokenHash(_ context.Context, tokenHash string) (*domain.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash {
			c := *t
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDeviceTokenRepository) ListByUser(_ context.Context, userID string) ([]*domain.DeviceToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.DeviceToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockDeviceTokenRepository) Touch(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.LastActiveAt = &at
	return nil
}

func (m *MockDeviceTokenRepository) Revoke(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok || t.UserID != userID {
		return domain.ErrNotFound
	}
	t.Revoked = true
	return nil
}

func (m *MockDeviceTokenRepository) DeleteStalePending(_ context.Context, userID string, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, t := range m.tokens {
		if t.UserID == userID && t.IsPending() && t.IsExpired(now) {
			delete(m.tokens, id)
			n++
		}
	}
	return n, nil
}
