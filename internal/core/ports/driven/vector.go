package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// VectorStore persists chunk embeddings with their metadata and answers
// nearest-neighbour queries by cosine similarity.
//
// A store starts without a collection. The first ingestion calls Create,
// later ones call Append; Exists lets the core recover that state after a
// restart.
type VectorStore interface {
	// Exists reports whether a collection has been created.
	Exists(ctx context.Context) (bool, error)

	// Create creates the collection and stores the first batch.
	// vectors[i] is the embedding of chunks[i].
	Create(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Append adds a batch to an existing collection.
	Append(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Search returns up to k chunks ordered by descending similarity.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
