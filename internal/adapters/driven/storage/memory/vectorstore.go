// Package memory provides an in-process vector store.
//
// Nothing is persisted, so every restart begins with an empty index. It is
// meant for tests, demos and the MCP server run against throwaway data.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// ErrNoCollection is returned when appending before Create.
var ErrNoCollection = errors.New("collection does not exist")

type entry struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
}

// VectorStore is a brute-force cosine store guarded by a RWMutex.
type VectorStore struct {
	mu        sync.RWMutex
	created   bool
	dimension int
	entries   []entry
}

// NewVectorStore creates an empty store.
func NewVectorStore() *VectorStore {
	return &VectorStore{}
}

// Exists reports whether Create has been called.
func (s *VectorStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.created, nil
}

// Create initialises the collection from the first batch.
func (s *VectorStore) Create(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := checkBatch(chunks, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	s.dimension = len(vectors[0])
	s.entries = nil
	return s.add(chunks, vectors)
}

// Append adds a batch to an existing collection.
func (s *VectorStore) Append(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := checkBatch(chunks, vectors); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return ErrNoCollection
	}
	return s.add(chunks, vectors)
}

func (s *VectorStore) add(chunks []domain.Chunk, vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("vector %d has dimension %d, collection has %d", i, len(v), s.dimension)
		}
	}
	for i := range chunks {
		s.entries = append(s.entries, entry{
			chunk:  chunks[i],
			vector: vectors[i],
			norm:   vecmath.Norm(vectors[i]),
		})
	}
	return nil
}

// Search returns the k most similar chunks, best first.
func (s *VectorStore) Search(_ context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return nil, ErrNoCollection
	}

	qn := vecmath.Norm(query)
	top := vecmath.NewTopK(k)
	for i := range s.entries {
		top.Push(i, vecmath.Cosine(query, s.entries[i].vector, qn, s.entries[i].norm))
	}

	results := top.Results()
	hits := make([]domain.ScoredChunk, len(results))
	for i, r := range results {
		hits[i] = domain.ScoredChunk{Chunk: s.entries[r.Index].chunk, Score: r.Score}
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

func checkBatch(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return errors.New("empty batch")
	}
	return nil
}
