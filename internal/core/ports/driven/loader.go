package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// DocumentLoader extracts text from a file, one Document per page.
// An unreadable or corrupt file yields an error and must never panic.
type DocumentLoader interface {
	// Load extracts the pages of the file at path.
	Load(ctx context.Context, path string) ([]domain.Document, error)

	// Name identifies the loader in logs.
	Name() string
}

// Splitter cuts documents into bounded chunks that inherit the document's
// metadata. Splitting is pure: the same input yields the same chunk texts.
type Splitter interface {
	Split(docs []domain.Document) []domain.Chunk
}
