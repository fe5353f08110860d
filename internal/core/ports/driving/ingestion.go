package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// IngestionService adds knowledge-base files to the index.
type IngestionService interface {
	// Ingest processes the named files from the knowledge base.
	// Files already in the ledger are skipped before any work; files that
	// fail are reported and the rest of the batch continues.
	Ingest(ctx context.Context, names []string) (*domain.IngestionReport, error)

	// Reconcile ingests every knowledge-base file missing from the ledger.
	Reconcile(ctx context.Context) (*domain.IngestionReport, error)

	// Upload stores a new file in the knowledge base and ingests it.
	Upload(ctx context.Context, filename string, r io.Reader) (*domain.UploadResult, error)

	// Processed lists the ledger in sorted order.
	Processed(ctx context.Context) ([]string, error)
}

// IndexStatus summarises the state of the index for health checks.
type IndexStatus struct {
	Ready          bool `json:"index_ready"`
	Chunks         int  `json:"chunks"`
	ProcessedFiles int  `json:"processed_files"`
}
