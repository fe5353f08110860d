// Package storage selects the vector store backend named in settings.
package storage

import (
	"fmt"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/askdocs/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// New opens the configured vector store. dataDir is only used by SQLite.
func New(s domain.VectorStoreSettings, dataDir string) (driven.VectorStore, error) {
	switch s.Kind {
	case domain.VectorStoreSQLite, "":
		store, err := sqlite.NewStore(dataDir, s.Collection)
		if err != nil {
			return nil, domain.Storage("open sqlite index", err)
		}
		logger.Debug("Vector store: sqlite %s (collection %s)", store.Path(), store.Collection())
		return store, nil

	case domain.VectorStoreMemory:
		logger.Debug("Vector store: memory")
		return memory.NewVectorStore(), nil

	case domain.VectorStoreQdrant:
		store, err := qdrant.NewStore(qdrant.ConfigFromSettings(s))
		if err != nil {
			return nil, err
		}
		logger.Debug("Vector store: qdrant %s (collection %s)", s.QdrantURL, s.Collection)
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unsupported vector store %q", domain.ErrInvalidInput, s.Kind)
	}
}
