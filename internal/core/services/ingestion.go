package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure IngestionService implements the interfaces.
var (
	_ driving.IngestionService = (*IngestionService)(nil)
	_ driving.StatusService    = (*IngestionService)(nil)
)

// Upload validation messages, surfaced verbatim to API callers.
const (
	MsgNoFile      = "No file provided"
	MsgPDFOnly     = "Only PDF files accepted"
	supportedExt   = ".pdf"
	defaultWorkers = 4
)

// IngestionService loads, splits and indexes knowledge-base files and keeps
// the ledger in step with the index.
type IngestionService struct {
	ledger   driven.LedgerStore
	kb       driven.KnowledgeBase
	loader   driven.DocumentLoader
	splitter driven.Splitter
	index    *Index
	workers  int

	// batchMu makes ledger check, index write and ledger merge one unit,
	// so two batches naming the same file cannot both index it.
	batchMu sync.Mutex
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithIngestWorkers bounds how many files are loaded concurrently.
func WithIngestWorkers(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	ledger driven.LedgerStore,
	kb driven.KnowledgeBase,
	loader driven.DocumentLoader,
	splitter driven.Splitter,
	index *Index,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		ledger:   ledger,
		kb:       kb,
		loader:   loader,
		splitter: splitter,
		index:    index,
		workers:  defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fileResult is the outcome of loading and splitting one file.
type fileResult struct {
	name   string
	chunks []domain.Chunk
	err    error
}

// Ingest processes the named files. Names already in the ledger are skipped
// without touching the loader. Per-file failures are reported and do not
// abort the batch. Only files whose chunks reached the index are merged
// into the ledger, so failed files are retried by a later pass.
func (s *IngestionService) Ingest(ctx context.Context, names []string) (*domain.IngestionReport, error) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.ingestLocked(ctx, names)
}

// ingestLocked is Ingest for callers already holding batchMu.
func (s *IngestionService) ingestLocked(ctx context.Context, names []string) (*domain.IngestionReport, error) {
	logger.Section("Ingestion")

	report := domain.NewIngestionReport()

	processed, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, asStorage("load ledger", err)
	}

	seen := domain.NewFileSet()
	var pending []string
	for _, name := range names {
		if seen.Has(name) {
			continue
		}
		seen.Add(name)

		if processed.Has(name) {
			logger.Info("Skipping %s: already processed", name)
			report.Skipped = append(report.Skipped, name)
			continue
		}
		pending = append(pending, name)
	}

	if len(pending) == 0 {
		return report, nil
	}

	results := s.prepareAll(ctx, pending)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	var batch []domain.Chunk
	var loaded []string
	for i, r := range results {
		if r.err != nil {
			logger.Error("Failed to process %s: %v", r.name, r.err)
			report.Failed = append(report.Failed, domain.FileFailure{File: r.name, Err: r.err.Error()})
			continue
		}
		logger.Info("Processing file %d/%d: %s (%d chunks)", i+1, len(results), r.name, len(r.chunks))
		report.ChunksPerFile[r.name] = len(r.chunks)
		loaded = append(loaded, r.name)
		batch = append(batch, r.chunks...)
	}

	for i := range batch {
		batch[i].Position = i
	}

	if err := s.index.Write(ctx, batch); err != nil {
		logger.Error("Index update failed for %d files: %v", len(loaded), err)
		for _, name := range loaded {
			report.Failed = append(report.Failed, domain.FileFailure{File: name, Err: err.Error()})
		}
		report.ChunksPerFile = make(map[string]int)
		return report, nil
	}

	if len(loaded) > 0 {
		if err := s.ledger.Merge(ctx, loaded); err != nil {
			return nil, asStorage("update ledger", err)
		}
	}

	report.Succeeded = loaded
	report.Chunks = len(batch)
	logger.Info("Ingestion complete: %d succeeded, %d skipped, %d failed, %d chunks",
		len(report.Succeeded), len(report.Skipped), len(report.Failed), report.Chunks)
	return report, nil
}

// prepareAll loads and splits files concurrently, keeping input order.
func (s *IngestionService) prepareAll(ctx context.Context, names []string) []fileResult {
	results := make([]fileResult, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, name := range names {
		g.Go(func() error {
			chunks, err := s.prepare(gctx, name)
			results[i] = fileResult{name: name, chunks: chunks, err: err}
			// Per-file errors must not cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *IngestionService) prepare(ctx context.Context, name string) ([]domain.Chunk, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, domain.Validation(fmt.Sprintf("invalid file name %q", name))
	}

	docs, err := s.loader.Load(ctx, s.kb.Path(name))
	if err != nil {
		return nil, domain.Upstream("load "+name, err)
	}
	logger.Debug("Loaded %d pages from %s", len(docs), name)

	return s.splitter.Split(docs), nil
}

// Reconcile ingests exactly the knowledge-base files missing from the ledger.
func (s *IngestionService) Reconcile(ctx context.Context) (*domain.IngestionReport, error) {
	names, err := s.kb.List(ctx)
	if err != nil {
		return nil, asStorage("list knowledge base", err)
	}

	processed, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, asStorage("load ledger", err)
	}

	missing := domain.NewFileSet(names...).Difference(processed).Sorted()
	if len(missing) == 0 {
		logger.Info("Knowledge base is up to date (%d files)", len(names))
		return domain.NewIngestionReport(), nil
	}

	logger.Info("Processing %d new files...", len(missing))
	return s.Ingest(ctx, missing)
}

// Upload validates and stores a new file, then ingests it. Validation
// happens before anything is written. A file already in the ledger is
// reported as such and the stored copy is left untouched. The ledger check,
// the save and the ingestion hold the batch lock together, so a concurrent
// reconcile cannot pick the file up between them.
func (s *IngestionService) Upload(ctx context.Context, filename string, r io.Reader) (*domain.UploadResult, error) {
	name, err := uploadName(filename)
	if err != nil {
		return nil, err
	}

	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	processed, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, asStorage("load ledger", err)
	}
	if processed.Has(name) {
		logger.Info("Upload of %s ignored: already processed", name)
		return &domain.UploadResult{File: name, AlreadyProcessed: true}, nil
	}

	if err := s.kb.Save(ctx, name, r); err != nil {
		return nil, asStorage("save "+name, err)
	}

	report, err := s.ingestLocked(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(report.Failed) > 0 {
		return nil, domain.Upstream("ingest "+name, errors.New(report.Failed[0].Err))
	}

	return &domain.UploadResult{File: name, Chunks: report.ChunksPerFile[name]}, nil
}

// Processed lists the ledger in sorted order.
func (s *IngestionService) Processed(ctx context.Context) ([]string, error) {
	processed, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, asStorage("load ledger", err)
	}
	return processed.Sorted(), nil
}

// Status reports index readiness and sizes.
func (s *IngestionService) Status(ctx context.Context) (*driving.IndexStatus, error) {
	processed, err := s.ledger.Load(ctx)
	if err != nil {
		return nil, asStorage("load ledger", err)
	}
	chunks, err := s.index.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &driving.IndexStatus{
		Ready:          s.index.Ready(),
		Chunks:         chunks,
		ProcessedFiles: len(processed),
	}, nil
}

// uploadName reduces a client-supplied filename to a safe base name and
// checks its extension.
func uploadName(filename string) (string, error) {
	name := strings.TrimSpace(strings.ReplaceAll(filename, `\`, "/"))
	if name == "" {
		return "", domain.Validation(MsgNoFile)
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return "", domain.Validation(MsgNoFile)
	}
	if !strings.EqualFold(path.Ext(name), supportedExt) {
		return "", domain.Validation(MsgPDFOnly)
	}
	return name, nil
}

// IsSupportedFile reports whether name has an ingestible extension.
func IsSupportedFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), supportedExt)
}

func asStorage(op string, err error) error {
	if errors.Is(err, domain.ErrStorage) {
		return err
	}
	return domain.Storage(op, err)
}
