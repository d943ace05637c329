package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RateLimitResult is the outcome of a single rate-limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter is a sliding-window admission check keyed by IP, user id or token
type RateLimiter interface {
	Check(ctx context.Context, key string) (*RateLimitResult, error)
}

// USDAClient defines the interface for interacting with USDA FoodData Central API
type USDAClient interface {
	SearchFoods(ctx context.Context, query string) (*USDASearchResponse, error)
}

// OpenFoodFactsClient looks up consumer products by barcode
type OpenFoodFactsClient interface {
	GetProduct(ctx context.Context, barcode string) (*OFFProduct, error)
}

// DSLDClient searches and fetches supplement labels
type DSLDClient interface {
	Search(ctx context.Context, query string) ([]DSLDSearchHit, error)
	GetLabel(ctx context.Context, id string) (*DSLDLabel, error)
}

// FoodRepository persists food records
type FoodRepository interface {
	FindByID(ctx context.Context, id string) (*Food, error)
	// FindByBarcode returns the food with barcode visible to userID (shared or owned)
	FindByBarcode(ctx context.Context, barcode, userID string) (*Food, error)
	// FindShared returns the shared food matching name, brand and source exactly
	FindShared(ctx context.Context, name string, brand *string, source FoodSource) (*Food, error)
	// FindPersonalCopy returns userID's food matching name, source and brand exactly
	FindPersonalCopy(ctx context.Context, userID, name string, source FoodSource, brand *string) (*Food, error)
	// Search matches name or brand case-insensitively among shared and userID's foods
	Search(ctx context.Context, query, userID string, limit int) ([]*Food, error)
	Create(ctx context.Context, food *Food) error
	// UpdateNutrition overwrites every descriptive and nutrient field of an existing food
	UpdateNutrition(ctx context.Context, food *Food) error
}

// MealRepository stores meals together with their item foods
type MealRepository interface {
	Create(ctx context.Context, meal *Meal) error
	// FindByID loads the meal with every item's food
	FindByID(ctx context.Context, id string) (*Meal, error)
}

// LogRepository persists daily log entries
type LogRepository interface {
	Create(ctx context.Context, entry *LogEntry) error
	FindByID(ctx context.Context, id string) (*LogEntry, error)
	Update(ctx context.Context, entry *LogEntry) error
}

// PairingRepository persists short-lived pairing codes
type PairingRepository interface {
	Create(ctx context.Context, code *PairingCode) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*PairingCode, error)
	// FindOpenByCode returns an unclaimed code that has not expired at now
	FindOpenByCode(ctx context.Context, code string, now time.Time) (*PairingCode, error)
	// MarkClaimed sets claimed_by only if the code is still unclaimed; false means it lost the race
	MarkClaimed(ctx context.Context, code, userID string) (bool, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteExpired removes unclaimed codes that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// DeviceTokenRepository persists device bearer credentials
type DeviceTokenRepository interface {
	Create(ctx context.Context, token *DeviceToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*DeviceToken, error)
	ListByUser(ctx context.Context, userID string) ([]*DeviceToken, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Revoke(ctx context.Context, id, userID string) error
	// DeleteStalePending removes never-activated tokens whose expiry passed before now
	DeleteStalePending(ctx context.Context, userID string, now time.Time) (int64, error)
}
