package ledger

import "errors"

// Error definitions for the ledger view.
var (
	// ErrNoIngestionService indicates that no ingestion service was provided.
	ErrNoIngestionService = errors.New("ingestion service is required")
)
