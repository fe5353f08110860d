// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"errors"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Text shown for failures. Internal detail stays out of the terminal.
const (
	TextNotReady = "Vector store is not initialized. Open the ledger pane and press r to ingest the knowledge base."
	TextTimeout  = "The request timed out. Please try again."
	TextFailed   = "Error processing your request"
)

// AnswerReceived carries the answer to a question back to the ask view.
type AnswerReceived struct {
	Question string
	Result   *domain.QueryResult
	Err      error
}

// LedgerLoaded carries the processed files and index status.
type LedgerLoaded struct {
	Files  []string
	Status *driving.IndexStatus
	Err    error
}

// ReconcileCompleted carries the report of a reconcile run.
type ReconcileCompleted struct {
	Report *domain.IngestionReport
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewAsk is the question input and answer view.
	ViewAsk ViewType = iota
	// ViewLedger lists processed files and index status.
	ViewLedger
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewAsk:
		return "ask"
	case ViewLedger:
		return "ledger"
	default:
		return "unknown"
	}
}

// ErrorText maps err to the line shown to the user.
func ErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrNotReady):
		return TextNotReady
	case errors.Is(err, domain.ErrValidation):
		return domain.ValidationMessage(err)
	case errors.Is(err, domain.ErrTimeout):
		return TextTimeout
	default:
		return TextFailed
	}
}
