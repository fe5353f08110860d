// Package tui provides an interactive terminal user interface for askdocs.
// It is a driving adapter over the same services as the HTTP API.
package tui

import (
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI needs.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Ingestion lists and reconciles the ledger.
	Ingestion driving.IngestionService

	// Status reports index health. Optional.
	Status driving.StatusService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Ingestion == nil {
		return ErrMissingIngestionService
	}
	return nil
}
