package ratelimit

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Memory implements the interface.
var _ driven.RateLimiter = (*Memory)(nil)

// DefaultMaxKeys bounds how many client buckets the memory limiter tracks.
const DefaultMaxKeys = 10000

// Memory is an in-process limiter. Each key gets a token bucket holding n
// tokens that refills one token every per/n. Least recently seen keys are
// evicted once more than maxKeys clients are tracked.
type Memory struct {
	mu      sync.Mutex
	buckets *lru.Cache[string, *rate.Limiter]
	every   rate.Limit
	burst   int
}

// NewMemory creates a limiter allowing n requests per window per key.
func NewMemory(n int, per time.Duration, maxKeys int) (*Memory, error) {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	cache, err := lru.New[string, *rate.Limiter](maxKeys)
	if err != nil {
		return nil, err
	}
	return &Memory{
		buckets: cache,
		every:   rate.Every(per / time.Duration(n)),
		burst:   n,
	}, nil
}

// Allow takes a token from key's bucket.
func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	b, ok := m.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(m.every, m.burst)
		m.buckets.Add(key, b)
	}
	m.mu.Unlock()
	return b.Allow(), nil
}

// Name returns "memory".
func (m *Memory) Name() string { return "memory" }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
