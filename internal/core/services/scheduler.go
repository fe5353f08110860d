package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// RunResult records one reconcile run.
type RunResult struct {
	StartedAt time.Time
	EndedAt   time.Time
	Ingested  int
	Failed    int
	Err       error
}

// Scheduler re-runs reconciliation on a fixed interval so files copied into
// the knowledge base while serving are picked up without a restart.
type Scheduler struct {
	interval time.Duration
	ingest   driving.IngestionService

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	last    *RunResult
}

// NewScheduler creates a scheduler. A non-positive interval makes Start a no-op.
func NewScheduler(interval time.Duration, ingest driving.IngestionService) *Scheduler {
	return &Scheduler{
		interval: interval,
		ingest:   ingest,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()
	defer close(done)

	logger.Info("Reconciling knowledge base every %s", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.markStopped()
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler, waiting for a running pass.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
	return nil
}

// Last returns the most recent run, or nil before the first tick.
func (s *Scheduler) Last() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) markStopped() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// runOnce executes a single reconcile pass synchronously; ticks that fire
// during a long pass are dropped by the ticker.
func (s *Scheduler) runOnce(ctx context.Context) {
	result := &RunResult{StartedAt: time.Now()}
	report, err := s.ingest.Reconcile(ctx)
	result.EndedAt = time.Now()
	result.Err = err

	switch {
	case err != nil:
		logger.Warn("scheduled reconcile failed: %v", err)
	case report != nil:
		result.Ingested = len(report.Succeeded)
		result.Failed = len(report.Failed)
		logReport("scheduled reconcile", report)
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
}

// logReport writes a one-line summary of an ingestion batch.
func logReport(what string, report *domain.IngestionReport) {
	if len(report.Succeeded) == 0 && len(report.Failed) == 0 {
		logger.Debug("%s: nothing to do", what)
		return
	}
	logger.Info("%s: %d ingested, %d failed, %d chunks",
		what, len(report.Succeeded), len(report.Failed), report.Chunks)
	for _, f := range report.Failed {
		logger.Warn("%s: %s: %s", what, f.File, f.Err)
	}
}
