package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result *domain.QueryResult
	err    error
}

func (m *mockQueryService) Answer(_ context.Context, _ string) (*domain.QueryResult, error) {
	return m.result, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	report     *domain.IngestionReport
	processed  []string
	err        error
	ingested   []string
	reconciled bool
}

func (m *mockIngestionService) Ingest(_ context.Context, names []string) (*domain.IngestionReport, error) {
	m.ingested = names
	return m.report, m.err
}

func (m *mockIngestionService) Reconcile(_ context.Context) (*domain.IngestionReport, error) {
	m.reconciled = true
	return m.report, m.err
}

func (m *mockIngestionService) Upload(_ context.Context, _ string, _ io.Reader) (*domain.UploadResult, error) {
	return nil, m.err
}

func (m *mockIngestionService) Processed(_ context.Context) ([]string, error) {
	return m.processed, m.err
}

// mockStatusService is a mock implementation of driving.StatusService.
type mockStatusService struct {
	status *driving.IndexStatus
	err    error
}

func (m *mockStatusService) Status(_ context.Context) (*driving.IndexStatus, error) {
	return m.status, m.err
}

func newTestServer(q *mockQueryService, ing *mockIngestionService) *Server {
	s, err := NewServer(&Ports{Query: q, Ingestion: ing})
	if err != nil {
		panic(err)
	}
	return s
}
