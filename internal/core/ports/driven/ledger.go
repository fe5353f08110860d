package driven

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// LedgerStore persists the set of filenames that have already been ingested.
// The set only ever grows; entries are removed by manual edits alone.
type LedgerStore interface {
	// Load returns the full ledger. A missing ledger is an empty set.
	// An existing but unreadable ledger yields domain.ErrStorage.
	Load(ctx context.Context) (domain.FileSet, error)

	// Merge unions names into the ledger and persists the result as a whole.
	// Implementations serialise concurrent callers so no update is lost.
	Merge(ctx context.Context, names []string) error

	// Path returns the backing location for display.
	Path() string
}
