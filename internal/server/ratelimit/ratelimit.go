// Package ratelimit counts requests per key in fixed time windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result describes the state of a key's window after one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter is the time left until the window resets, rounded up to whole
// seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.Reset.Sub(now)
	if d <= 0 {
		return time.Second
	}
	return (d + time.Second - 1).Truncate(time.Second)
}

// Limiter records one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// incrWithExpire is a seam for tests; it increments key and makes sure it
// expires with its window.
var incrWithExpire = func(ctx context.Context, client redis.Cmdable, key string, ttl time.Duration) (int64, error) {
	pipe := client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RedisLimiter allows up to limit requests per key in each window. Windows are
// aligned to multiples of the window length, so every instance sharing the
// redis server agrees on them.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "taskkeeper:ratelimit",
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	start := l.now().Truncate(l.window)
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, start.Unix())

	count, err := incrWithExpire(ctx, l.client, redisKey, l.window)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: %w", err)
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   int(count) <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		Reset:     start.Add(l.window),
	}, nil
}

// Noop allows everything. It is used when no redis address is configured.
type Noop struct{}

func (Noop) Allow(context.Context, string) (Result, error) {
	return Result{Allowed: true}, nil
}
