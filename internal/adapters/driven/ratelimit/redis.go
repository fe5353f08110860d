package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Redis implements the interface.
var _ driven.RateLimiter = (*Redis)(nil)

// KeyPrefix namespaces limiter counters in Redis.
const KeyPrefix = "askdocs:ratelimit:"

// Redis is a fixed-window limiter. A counter per key and window is
// incremented on every request and expires with the window.
type Redis struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, n int, per time.Duration) *Redis {
	return &Redis{
		client: client,
		limit:  int64(n),
		window: per,
		now:    time.Now,
	}
}

// Allow increments key's counter for the current window.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	start := r.now().Truncate(r.window)
	counter := KeyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, counter)
		pipe.Expire(ctx, counter, r.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit counter: %w", err)
	}
	return incr.Val() <= r.limit, nil
}

// Name returns "redis".
func (r *Redis) Name() string { return "redis" }

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
