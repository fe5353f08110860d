package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

func TestSubmit_ReturnsValue(t *testing.T) {
	pool := NewPool(2, time.Second)

	v, err := Submit(context.Background(), pool, func(context.Context) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmit_PropagatesError(t *testing.T) {
	pool := NewPool(1, time.Second)
	boom := errors.New("boom")

	_, err := Submit(context.Background(), pool, func(context.Context) (int, error) {
		return 0, boom
	})

	assert.ErrorIs(t, err, boom)
}

func TestSubmit_Timeout(t *testing.T) {
	pool := NewPool(1, 20*time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	_, err := Submit(context.Background(), pool, func(ctx context.Context) (int, error) {
		select {
		case <-release:
		case <-time.After(time.Second):
		}
		return 1, nil
	})

	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestSubmit_RecoversPanic(t *testing.T) {
	pool := NewPool(1, time.Second)

	_, err := Submit(context.Background(), pool, func(context.Context) (int, error) {
		panic("bad pdf")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad pdf")

	// The slot was released.
	v, err := Submit(context.Background(), pool, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSubmit_BoundsConcurrency(t *testing.T) {
	pool := NewPool(2, 0)
	var running, peak atomic.Int32
	var wg sync.WaitGroup

	for range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Submit(context.Background(), pool, func(context.Context) (struct{}, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPooledServices_Delegate(t *testing.T) {
	f := newFixture(nil, "a.pdf")
	pool := NewPool(2, time.Second)
	ingest := NewPooledIngestionService(f.ingest, pool)
	query := NewPooledQueryService(f.query, pool)
	ctx := context.Background()

	up, err := ingest.Upload(ctx, "b.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 1, up.Chunks)

	report, err := ingest.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, report.Succeeded)

	report, err = ingest.Ingest(ctx, []string{"a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, report.Skipped)

	names, err := ingest.Processed(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, names)

	result, err := query.Answer(ctx, "anything")
	require.NoError(t, err)
	assert.NotNil(t, result)
}
