package driven

import (
	"context"
	"io"
)

// KnowledgeBase is the folder of source files that feeds the index.
type KnowledgeBase interface {
	// List returns the base names of all ingestible files.
	List(ctx context.Context) ([]string, error)

	// Save stores r under name, replacing any existing file atomically.
	Save(ctx context.Context, name string, r io.Reader) error

	// Path returns the location of name for loaders.
	Path(name string) string
}
