package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for askdocs resources.
	uriScheme = "askdocs://"

	// LedgerURI lists processed files.
	LedgerURI = uriScheme + "ledger"

	// StatusURI reports index state.
	StatusURI = uriScheme + "status"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         LedgerURI,
		Name:        "ledger",
		Description: "Knowledge-base files already processed into the index",
		MIMEType:    "application/json",
	}, s.handleLedgerResource)

	if s.ports.Status != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         StatusURI,
			Name:        "status",
			Description: "Index readiness, chunk count and processed file count",
			MIMEType:    "application/json",
		}, s.handleStatusResource)
	}
}

// handleLedgerResource returns the processed filenames as a JSON array.
func (s *Server) handleLedgerResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	files, err := s.ports.Ingestion.Processed(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading ledger: %w", err)
	}
	if files == nil {
		files = []string{}
	}
	return jsonResource(req.Params.URI, files)
}

// handleStatusResource returns the index status.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.Status.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	return jsonResource(req.Params.URI, status)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
