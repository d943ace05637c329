package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/macrolens/tracker/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "macrolens:ratelimit:"

// slidingWindowScript trims the sorted set to the window, then admits the request if there is room.
// Returns {allowed, count, oldest score}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local ttl_ms = tonumber(ARGV[4])
	local member = ARGV[5]

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)
	local allowed = 0
	if current < limit then
		redis.call('ZADD', key, now, member)
		redis.call('PEXPIRE', key, ttl_ms)
		current = current + 1
		allowed = 1
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local oldest_score = now
	if oldest[2] then
		oldest_score = tonumber(oldest[2])
	end
	return {allowed, current, oldest_score}
`)

// RedisLimiter is a sliding-window limiter shared by every process using the same Redis
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisLimiter allows limit requests per key within any window-long interval
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) (*RedisLimiter, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than 0")
	}
	if window <= 0 {
		return nil, errors.New("window must be greater than 0")
	}

	return &RedisLimiter{client: client, limit: limit, window: window, now: time.Now}, nil
}

// Check records a request for key if the window has room
func (r *RedisLimiter) Check(ctx context.Context, key string) (*domain.RateLimitResult, error) {
	now := r.now()
	windowStart := now.Add(-r.window)

	res, err := slidingWindowScript.Run(ctx, r.client, []string{redisKeyPrefix + key},
		now.UnixMicro(),
		windowStart.UnixMicro(),
		r.limit,
		r.window.Milliseconds(),
		strconv.FormatInt(now.UnixMicro(), 10)+"-"+uuid.NewString(),
	).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit check: %w", err)
	}
	if len(res) != 3 {
		return nil, errors.New("unexpected redis script result")
	}

	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)
	oldest, ok := res[2].(int64)
	if !ok {
		oldest = now.UnixMicro()
	}

	remaining := r.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &domain.RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: remaining,
		ResetAt:   time.UnixMicro(oldest).Add(r.window),
	}, nil
}
