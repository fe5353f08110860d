package filesystem

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/core/services"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// DefaultSettle is how long a file must be quiet before it is ingested.
// Copies of large PDFs arrive as a burst of writes.
const DefaultSettle = 2 * time.Second

// AutoIngest ingests PDFs as they appear in the watched folder.
type AutoIngest struct {
	watcher *Watcher
	ingest  driving.IngestionService
	settle  time.Duration
}

// NewAutoIngest creates an auto-ingester. A non-positive settle uses DefaultSettle.
func NewAutoIngest(w *Watcher, ingest driving.IngestionService, settle time.Duration) *AutoIngest {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &AutoIngest{watcher: w, ingest: ingest, settle: settle}
}

// Run watches until ctx is cancelled, ingesting each settled batch of new or
// rewritten PDFs. Deletions are logged only; the ledger never shrinks.
func (a *AutoIngest) Run(ctx context.Context) error {
	changes, err := a.watcher.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Watching %s for new PDFs", a.watcher.Root())

	pending := make(map[string]struct{})
	timer := time.NewTimer(a.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if !services.IsSupportedFile(change.Name) {
				continue
			}
			if change.Type == ChangeDeleted {
				logger.Info("%s was removed from the knowledge base; its chunks stay indexed", change.Name)
				delete(pending, change.Name)
				continue
			}
			logger.Debug("Watcher: %s %s", change.Name, change.Type)
			pending[change.Name] = struct{}{}
			timer.Reset(a.settle)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)
			a.flush(ctx, names)
		}
	}
}

func (a *AutoIngest) flush(ctx context.Context, names []string) {
	report, err := a.ingest.Ingest(ctx, names)
	if err != nil {
		logger.Error("Auto-ingest of %v failed: %v", names, err)
		return
	}
	if len(report.Succeeded) > 0 {
		logger.Info("Auto-ingested %d file(s), %d chunks", len(report.Succeeded), report.Chunks)
	}
	for _, f := range report.Failed {
		logger.Warn("Auto-ingest failed for %s: %s", f.File, f.Err)
	}
}
