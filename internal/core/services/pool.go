package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Pool runs blocking core calls on a bounded set of goroutines and gives
// each call a deadline. A caller whose deadline passes gets ErrTimeout
// immediately; the task keeps its worker slot until it observes the
// cancelled context and returns.
type Pool struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewPool creates a pool of the given size. A zero timeout disables deadlines.
func NewPool(workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(workers)),
		timeout: timeout,
	}
}

// Submit runs fn on the pool and waits for its result.
func Submit[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, timeoutError(err)
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer p.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("task panicked: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{val: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return zero, timeoutError(r.err)
		}
		return r.val, r.err
	case <-ctx.Done():
		return zero, timeoutError(ctx.Err())
	}
}

func timeoutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	return err
}

// Ensure the dispatching wrappers implement the interfaces.
var (
	_ driving.QueryService     = (*PooledQueryService)(nil)
	_ driving.IngestionService = (*PooledIngestionService)(nil)
)

// PooledQueryService runs every Answer call on a Pool.
type PooledQueryService struct {
	next driving.QueryService
	pool *Pool
}

// NewPooledQueryService wraps next so that calls go through pool.
func NewPooledQueryService(next driving.QueryService, pool *Pool) *PooledQueryService {
	return &PooledQueryService{next: next, pool: pool}
}

// Answer implements driving.QueryService.
func (s *PooledQueryService) Answer(ctx context.Context, question string) (*domain.QueryResult, error) {
	return Submit(ctx, s.pool, func(ctx context.Context) (*domain.QueryResult, error) {
		return s.next.Answer(ctx, question)
	})
}

// PooledIngestionService runs every ingestion call on a Pool.
type PooledIngestionService struct {
	next driving.IngestionService
	pool *Pool
}

// NewPooledIngestionService wraps next so that calls go through pool.
func NewPooledIngestionService(next driving.IngestionService, pool *Pool) *PooledIngestionService {
	return &PooledIngestionService{next: next, pool: pool}
}

// Ingest implements driving.IngestionService.
func (s *PooledIngestionService) Ingest(ctx context.Context, names []string) (*domain.IngestionReport, error) {
	return Submit(ctx, s.pool, func(ctx context.Context) (*domain.IngestionReport, error) {
		return s.next.Ingest(ctx, names)
	})
}

// Reconcile implements driving.IngestionService.
func (s *PooledIngestionService) Reconcile(ctx context.Context) (*domain.IngestionReport, error) {
	return Submit(ctx, s.pool, s.next.Reconcile)
}

// Upload implements driving.IngestionService. The reader is consumed on the
// worker, so callers must keep it open until Upload returns.
func (s *PooledIngestionService) Upload(ctx context.Context, filename string, r io.Reader) (*domain.UploadResult, error) {
	return Submit(ctx, s.pool, func(ctx context.Context) (*domain.UploadResult, error) {
		return s.next.Upload(ctx, filename, r)
	})
}

// Processed implements driving.IngestionService.
func (s *PooledIngestionService) Processed(ctx context.Context) ([]string, error) {
	return s.next.Processed(ctx)
}
