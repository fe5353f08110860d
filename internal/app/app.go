// Package app assembles askdocs from settings: adapters, core services and
// the worker pool that front ends dispatch through.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ai"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/knowledgebase"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/ledger"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/core/services"
	"github.com/custodia-labs/askdocs/internal/logger"
	"github.com/custodia-labs/askdocs/internal/normalisers/pdf"
	"github.com/custodia-labs/askdocs/internal/postprocessors/chunker"
)

// App holds every long-lived component. Front ends should call the pooled
// services so work is bounded and time-limited.
type App struct {
	Settings domain.Settings

	Ledger   *ledger.Store
	KB       *knowledgebase.Folder
	Loader   driven.DocumentLoader
	Splitter *chunker.Processor
	Store    driven.VectorStore
	AI       *ai.Services
	Prompts  *file.PromptStore

	Index     *services.Index
	Ingestion *services.IngestionService
	Query     *services.QueryService
	Pool      *services.Pool
}

// Option customises assembly.
type Option func(*options)

type options struct {
	ai     *ai.Services
	loader driven.DocumentLoader
	store  driven.VectorStore
}

// WithAI supplies prebuilt AI services instead of building them from settings.
func WithAI(embedding driven.EmbeddingService, llm driven.LLMService) Option {
	return func(o *options) { o.ai = &ai.Services{Embedding: embedding, LLM: llm} }
}

// WithLoader supplies the document loader.
func WithLoader(l driven.DocumentLoader) Option {
	return func(o *options) { o.loader = l }
}

// WithVectorStore supplies the vector store.
func WithVectorStore(s driven.VectorStore) Option {
	return func(o *options) { o.store = s }
}

// New builds the application and restores the index ready state.
// Nothing is ingested here; callers decide whether to reconcile.
func New(ctx context.Context, settings domain.Settings, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger.Section("Startup")

	a := &App{
		Settings: settings,
		Ledger:   ledger.NewStore(settings.Paths.LedgerPath()),
		KB:       knowledgebase.NewFolder(settings.Paths.KnowledgeBase),
		Splitter: chunker.New(
			chunker.WithChunkSize(settings.Chunking.Size),
			chunker.WithOverlap(settings.Chunking.Overlap),
		),
	}

	var err error
	if a.Loader = o.loader; a.Loader == nil {
		if a.Loader, err = pdf.New(settings.Loader.Kind); err != nil {
			return nil, err
		}
	}
	logger.Debug("PDF loader: %s", a.Loader.Name())

	if a.AI = o.ai; a.AI == nil {
		if a.AI, err = ai.New(settings); err != nil {
			return nil, err
		}
	}

	if a.Store = o.store; a.Store == nil {
		if a.Store, err = storage.New(settings.VectorStore, settings.Paths.DataDir); err != nil {
			a.AI.Close()
			return nil, err
		}
	}

	a.Prompts, err = file.NewPromptStore(file.PromptDir(settings.Paths.DataDir))
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Index = services.NewIndex(a.Store, a.AI.Embedding, settings.Embedding.BatchSize)
	if err := a.Index.Open(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Ingestion = services.NewIngestionService(
		a.Ledger, a.KB, a.Loader, a.Splitter, a.Index,
		services.WithIngestWorkers(settings.Ingest.Workers),
	)
	a.Query = services.NewQueryService(
		a.Index, a.AI.LLM, settings.Search.K, settings.Search.ScoreThreshold,
		services.WithPromptStore(a.Prompts),
		services.WithGenerateOptions(ai.GenerateOptions(settings.LLM)),
	)
	a.Pool = services.NewPool(settings.Server.Workers, settings.Server.Timeout())

	logger.Debug("Knowledge base: %s, ledger: %s", a.KB.Dir(), a.Ledger.Path())
	return a, nil
}

// PooledQuery returns the query service dispatched through the worker pool.
func (a *App) PooledQuery() driving.QueryService {
	return services.NewPooledQueryService(a.Query, a.Pool)
}

// PooledIngestion returns the ingestion service dispatched through the worker pool.
func (a *App) PooledIngestion() driving.IngestionService {
	return services.NewPooledIngestionService(a.Ingestion, a.Pool)
}

// Status reports index health.
func (a *App) Status(ctx context.Context) (*driving.IndexStatus, error) {
	return a.Ingestion.Status(ctx)
}

// Reconcile runs startup reconciliation and logs the outcome. Per-file
// failures are logged and do not fail startup; only storage errors do.
func (a *App) Reconcile(ctx context.Context) (*domain.IngestionReport, error) {
	logger.Section("Reconcile")
	report, err := a.Ingestion.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile knowledge base: %w", err)
	}
	if !a.Index.Ready() {
		logger.Warn("Vector store is not initialized: no documents indexed yet")
	}
	return report, nil
}

// Close releases the vector store and AI clients.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.AI != nil {
		a.AI.Close()
	}
	return errors.Join(errs...)
}
