// Package ratelimit implements sliding-window admission checks keyed by IP, user or token.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/macrolens/tracker/internal/domain"
)

// MemoryLimiter is a process-wide sliding-window limiter.
// Windows expire lazily on access; state is lost on restart.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*slidingWindow
	now     func() time.Time
	checks  int
}

// slidingWindow tracks request timestamps for one key
type slidingWindow struct {
	timestamps []time.Time
}

// sweepEvery bounds how often idle keys are swept from the map
const sweepEvery = 1024

// NewMemoryLimiter allows limit requests per key within any window-long interval
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*slidingWindow),
		now:     time.Now,
	}
}

// Check records a request for key if the window has room
func (l *MemoryLimiter) Check(_ context.Context, key string) (*domain.RateLimitResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.checks++
	if l.checks%sweepEvery == 0 {
		l.sweep(now)
	}

	sw := l.windows[key]
	if sw == nil {
		sw = &slidingWindow{}
		l.windows[key] = sw
	}
	sw.cleanup(now, l.window)

	if len(sw.timestamps) >= l.limit {
		return &domain.RateLimitResult{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   sw.timestamps[0].Add(l.window),
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return &domain.RateLimitResult{
		Allowed:   true,
		Remaining: l.limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(l.window),
	}, nil
}

// sweep drops keys whose windows are empty. Must be called with l.mu held.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, sw := range l.windows {
		sw.cleanup(now, l.window)
		if len(sw.timestamps) == 0 {
			delete(l.windows, key)
		}
	}
}

// cleanup removes timestamps that fell out of the window
func (sw *slidingWindow) cleanup(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
