// Package mcp provides an MCP (Model Context Protocol) server adapter for askdocs.
// It lets AI assistants ask questions of the knowledge base and trigger ingestion.
package mcp

import (
	"errors"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrMissingIngestionService is returned when the ingestion service is not provided.
var ErrMissingIngestionService = errors.New("mcp: ingestion service is required")

// MsgFileFailed replaces the cause of each failed file in ingest results.
const MsgFileFailed = "file processing failed"

// toolError logs err and returns the message a tool caller may see.
func toolError(op string, err error) error {
	logger.Error("MCP %s failed: %v", op, err)
	switch {
	case errors.Is(err, domain.ErrValidation):
		return errors.New(domain.ValidationMessage(err))
	case errors.Is(err, domain.ErrNotReady):
		return errors.New("vector store is not initialized")
	case errors.Is(err, domain.ErrTimeout):
		return errors.New("request timed out")
	default:
		return errors.New("processing failed")
	}
}
