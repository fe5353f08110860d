package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to answer from the knowledge base"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string            `json:"answer"`
	Sources []domain.Citation `json:"sources"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Files []string `json:"files,omitempty" jsonschema:"knowledge-base filenames to ingest; empty ingests every unprocessed file"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Succeeded []string             `json:"succeeded"`
	Skipped   []string             `json:"skipped"`
	Failed    []domain.FileFailure `json:"failed"`
	Chunks    int                  `json:"chunks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed knowledge base, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Index knowledge-base PDFs that have not been processed yet",
	}, s.handleIngest)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Query.Answer(ctx, input.Query)
	if err != nil {
		return nil, AskOutput{}, toolError("ask", err)
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.Citation{}
	}
	return nil, AskOutput{Answer: result.Answer, Sources: sources}, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	var (
		report *domain.IngestionReport
		err    error
	)
	if len(input.Files) == 0 {
		report, err = s.ports.Ingestion.Reconcile(ctx)
	} else {
		report, err = s.ports.Ingestion.Ingest(ctx, input.Files)
	}
	if err != nil {
		return nil, IngestOutput{}, toolError("ingest", err)
	}

	return nil, IngestOutput{
		Succeeded: nonNil(report.Succeeded),
		Skipped:   nonNil(report.Skipped),
		Failed:    publicFailures(report.Failed),
		Chunks:    report.Chunks,
	}, nil
}

// publicFailures keeps the failed filenames but replaces each cause with
// MsgFileFailed. The causes are logged.
func publicFailures(failed []domain.FileFailure) []domain.FileFailure {
	out := make([]domain.FileFailure, 0, len(failed))
	for _, f := range failed {
		logger.Error("MCP ingest of %s failed: %s", f.File, f.Err)
		out = append(out, domain.FileFailure{File: f.File, Err: MsgFileFailed})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
