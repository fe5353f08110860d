package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// PingTimeout bounds the startup reachability check against Redis.
const PingTimeout = 2 * time.Second

// New builds a limiter from settings. Redis is used when a URL is set and the
// server answers a ping; otherwise the memory limiter is returned and a warning
// is logged. Only an invalid limit is an error.
func New(ctx context.Context, s domain.RateLimitSettings) (driven.RateLimiter, error) {
	n, per, err := domain.ParseRate(s.Limit)
	if err != nil {
		return nil, err
	}

	if s.RedisURL != "" {
		rl, err := connectRedis(ctx, s.RedisURL, n, per)
		if err == nil {
			logger.Debug("Rate limiter: redis (%s)", s.Limit)
			return rl, nil
		}
		logger.Warn("Redis unavailable, falling back to in-memory rate limiting: %v", err)
	}

	logger.Debug("Rate limiter: memory (%s)", s.Limit)
	return NewMemory(n, per, DefaultMaxKeys)
}

func connectRedis(ctx context.Context, url string, n int, per time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewRedis(client, n, per), nil
}
