package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when an entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrProductNotFound is returned when no source yields usable data for a product
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

	// ErrPairingNotFound is returned when no open pairing code matches
	ErrPairingNotFound = fmt.Errorf("pairing code %w", ErrNotFound)

	// ErrConflict is returned when a write collides with a unique constraint
	ErrConflict = errors.New("already exists")

	// ErrSourceUnavailable is returned when an external source times out, fails or is throttled
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUSDAAPIFailure is returned when USDA API request fails
	ErrUSDAAPIFailure = fmt.Errorf("USDA API request failed: %w", ErrSourceUnavailable)

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidPairingCode is returned when a human-entered code cannot be normalized
	ErrInvalidPairingCode = fmt.Errorf("pairing code must be 6 characters: %w", ErrInvalidRequest)

	// ErrUnauthorized is returned when no session or device identity can be resolved
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// RateLimitedError is a rate-limit rejection that knows when the window frees up
type RateLimitedError struct {
	Scope   string
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Scope, ErrRateLimited)
}

// Unwrap lets errors.Is match ErrRateLimited
func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}
