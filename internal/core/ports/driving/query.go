package driving

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// QueryService answers questions from the indexed knowledge base.
type QueryService interface {
	// Answer retrieves relevant chunks and generates a cited answer.
	// It fails with domain.ErrNotReady until the index holds data.
	Answer(ctx context.Context, question string) (*domain.QueryResult, error)
}

// StatusService reports index health.
type StatusService interface {
	Status(ctx context.Context) (*IndexStatus, error)
}
