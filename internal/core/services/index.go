package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// DefaultEmbedBatchSize is used when no batch size is configured.
const DefaultEmbedBatchSize = 32

// Index owns the process-wide vector index. It starts uninitialised; the
// first successful Write creates the collection and later writes append.
// Writes are serialised, searches are not.
type Index struct {
	store     driven.VectorStore
	embedder  driven.EmbeddingService
	batchSize int

	writeMu sync.Mutex
	ready   atomic.Bool
}

// NewIndex creates an index handle over the given store and embedder.
func NewIndex(store driven.VectorStore, embedder driven.EmbeddingService, batchSize int) *Index {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &Index{
		store:     store,
		embedder:  embedder,
		batchSize: batchSize,
	}
}

// Open restores the ready state from the store after a restart.
func (ix *Index) Open(ctx context.Context) error {
	exists, err := ix.store.Exists(ctx)
	if err != nil {
		return domain.Storage("open index", err)
	}
	ix.ready.Store(exists)
	logger.Debug("Index open: existing collection=%t", exists)
	return nil
}

// Ready reports whether the index holds a collection.
func (ix *Index) Ready() bool {
	return ix.ready.Load()
}

// Count returns the number of indexed chunks, zero before initialisation.
func (ix *Index) Count(ctx context.Context) (int, error) {
	if !ix.Ready() {
		return 0, nil
	}
	n, err := ix.store.Count(ctx)
	if err != nil {
		return 0, domain.Storage("count index", err)
	}
	return n, nil
}

// Write embeds chunks and stores them, creating the collection on the
// first call. Embedding happens before the write lock is taken.
func (ix *Index) Write(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	vectors, err := ix.embed(ctx, texts)
	if err != nil {
		return domain.Upstream("embed chunks", err)
	}

	ix.writeMu.Lock()
	defer ix.writeMu.Unlock()

	if ix.ready.Load() {
		logger.Debug("Appending %d chunks to index", len(chunks))
		if err := ix.store.Append(ctx, chunks, vectors); err != nil {
			return domain.Storage("append to index", err)
		}
		return nil
	}

	logger.Info("Creating index from %d chunks", len(chunks))
	if err := ix.store.Create(ctx, chunks, vectors); err != nil {
		return domain.Storage("create index", err)
	}
	ix.ready.Store(true)
	return nil
}

// Search returns the top k chunks for question whose similarity is at
// least threshold, best first.
func (ix *Index) Search(ctx context.Context, question string, k int, threshold float64) ([]domain.ScoredChunk, error) {
	if !ix.Ready() {
		return nil, domain.ErrNotReady
	}

	vector, err := ix.embedder.Embed(ctx, question)
	if err != nil {
		return nil, domain.Upstream("embed question", err)
	}

	hits, err := ix.store.Search(ctx, vector, k)
	if err != nil {
		return nil, domain.Storage("search index", err)
	}

	kept := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		if h.Score >= threshold {
			kept = append(kept, h)
		}
	}
	logger.Debug("Search: %d hits, %d above threshold %.2f", len(hits), len(kept), threshold)
	return kept, nil
}

func (ix *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += ix.batchSize {
		end := min(start+ix.batchSize, len(texts))
		batch, err := ix.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedding returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}
