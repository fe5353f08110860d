package driven

import "context"

// RateLimiter decides whether a client may make another request.
// Keys identify clients (remote IP for HTTP, user ID for chat).
type RateLimiter interface {
	// Allow consumes one request from key's budget.
	// It returns false once the budget for the current window is spent.
	Allow(ctx context.Context, key string) (bool, error)

	// Name identifies the backend ("redis" or "memory").
	Name() string

	// Close releases resources.
	Close() error
}
