// Package ollama provides an embedding service adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 60 * time.Second
	DefaultDimensions = 768 // nomic-embed-text default

	// legacyParallelism bounds concurrent single-text requests against
	// servers that predate the batch endpoint.
	legacyParallelism = 4
)

// errBatchUnsupported marks a server without /api/embed.
var errBatchUnsupported = errors.New("batch endpoint not available")

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: nomic-embed-text).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// Dimensions is the embedding vector size (model-dependent).
	Dimensions int
}

// ConfigFromSettings maps embedding settings onto a Config.
func ConfigFromSettings(s domain.EmbeddingSettings) Config {
	return Config{
		BaseURL:    s.BaseURL,
		Model:      s.Model,
		Dimensions: domain.EmbeddingDimensions()[s.Model],
	}
}

// EmbeddingService generates embeddings using Ollama.
//
// Batches go to /api/embed. Older servers answer 404 there, after which the
// service switches permanently to one /api/embeddings call per text.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
	legacy     atomic.Bool
}

// batchRequest is the /api/embed request format.
type batchRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// batchResponse is the /api/embed response format.
type batchResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// legacyRequest is the /api/embeddings request format.
type legacyRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// legacyResponse is the /api/embeddings response format.
type legacyResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	return &EmbeddingService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if !s.legacy.Load() {
		vectors, err := s.embedBatch(ctx, texts)
		if !errors.Is(err, errBatchUnsupported) {
			return vectors, err
		}
		logger.Debug("ollama: /api/embed unavailable, falling back to /api/embeddings")
		s.legacy.Store(true)
	}
	return s.embedEach(ctx, texts)
}

func (s *EmbeddingService) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var resp batchResponse
	status, err := s.post(ctx, "/api/embed", batchRequest{Model: s.model, Input: texts}, &resp)
	if status == http.StatusNotFound && err != nil {
		// A missing model is also a 404; only a missing route means an old server.
		var apiErr *apiError
		if errors.As(err, &apiErr) && !apiErr.mentionsModel() {
			return nil, errBatchUnsupported
		}
	}
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		vectors[i] = toFloat32(e)
	}
	return vectors, nil
}

func (s *EmbeddingService) embedEach(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(legacyParallelism)

	for i, text := range texts {
		g.Go(func() error {
			var resp legacyResponse
			if _, err := s.post(ctx, "/api/embeddings", legacyRequest{Model: s.model, Prompt: text}, &resp); err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			if len(resp.Embedding) == 0 {
				return fmt.Errorf("embed text %d: empty embedding", i)
			}
			vectors[i] = toFloat32(resp.Embedding)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// apiError is a non-200 answer from Ollama.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("ollama error (status %d): %s", e.status, e.body)
}

func (e *apiError) mentionsModel() bool {
	return bytes.Contains([]byte(e.body), []byte("model"))
}

// post sends a JSON request and decodes a JSON response. Transport failures
// are reported as domain.ErrEmbeddingUnavailable.
func (s *EmbeddingService) post(ctx context.Context, path string, in, out any) (int, error) {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, &apiError{status: resp.StatusCode, body: string(bytes.TrimSpace(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ollama: %w", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ollama: API returned status %d", domain.ErrEmbeddingUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
