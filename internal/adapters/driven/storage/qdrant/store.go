// Package qdrant stores chunk embeddings in a Qdrant collection over its REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultTimeout bounds each REST call.
const DefaultTimeout = 15 * time.Second

// pointNamespace derives stable point UUIDs from chunk IDs that are not UUIDs.
var pointNamespace = uuid.MustParse("5b0e6a52-3f43-4b52-9a0c-4a8e6f0d2c11")

// ErrNoCollection is returned when the collection has not been created.
var ErrNoCollection = errors.New("collection does not exist")

// Config configures the Qdrant client.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// ConfigFromSettings maps vector store settings to a client config.
func ConfigFromSettings(s domain.VectorStoreSettings) Config {
	return Config{URL: s.QdrantURL, APIKey: s.QdrantKey, Collection: s.Collection}
}

// Store is a minimal Qdrant REST client. Collections use cosine distance.
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// NewStore creates a Qdrant-backed store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", domain.ErrInvalidInput)
	}
	if cfg.Collection == "" {
		cfg.Collection = "askdocs"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (s *Store) collectionURL(suffix string) string {
	return s.baseURL + "/collections/" + url.PathEscape(s.collection) + suffix
}

// Exists reports whether the collection is present on the server.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	status, err := s.do(ctx, http.MethodGet, s.collectionURL(""), nil, nil)
	if status == http.StatusNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create (re)creates the collection sized to the first batch and stores it.
func (s *Store) Create(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := checkBatch(chunks, vectors); err != nil {
		return err
	}

	status, err := s.do(ctx, http.MethodDelete, s.collectionURL(""), nil, nil)
	if err != nil && status != http.StatusNotFound {
		return fmt.Errorf("dropping collection: %w", err)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     len(vectors[0]),
			"distance": "Cosine",
		},
	}
	if _, err := s.do(ctx, http.MethodPut, s.collectionURL(""), body, nil); err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return s.upsert(ctx, chunks, vectors)
}

// Append upserts a batch into the existing collection.
func (s *Store) Append(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := checkBatch(chunks, vectors); err != nil {
		return err
	}
	return s.upsert(ctx, chunks, vectors)
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (s *Store) upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	points := make([]point, len(chunks))
	for i, c := range chunks {
		points[i] = point{
			ID:     pointID(c.ID),
			Vector: vectors[i],
			Payload: map[string]any{
				"chunk_id": c.ID,
				"content":  c.Content,
				"position": c.Position,
				"metadata": c.Metadata,
			},
		}
	}

	status, err := s.do(ctx, http.MethodPut, s.collectionURL("/points?wait=true"),
		map[string]any{"points": points}, nil)
	if status == http.StatusNotFound {
		return ErrNoCollection
	}
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}
	return nil
}

// Search asks Qdrant for the k nearest points.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	req := map[string]any{
		"vector":       query,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID  string            `json:"chunk_id"`
				Content  string            `json:"content"`
				Position int               `json:"position"`
				Metadata map[string]string `json:"metadata"`
			} `json:"payload"`
		} `json:"result"`
	}

	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/search"), req, &resp)
	if status == http.StatusNotFound {
		return nil, ErrNoCollection
	}
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	hits := make([]domain.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, domain.ScoredChunk{
			Chunk: domain.Chunk{
				ID:       r.Payload.ChunkID,
				Content:  r.Payload.Content,
				Position: r.Payload.Position,
				Metadata: r.Payload.Metadata,
			},
			Score: r.Score,
		})
	}
	return hits, nil
}

// Count returns the exact number of points in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	status, err := s.do(ctx, http.MethodPost, s.collectionURL("/points/count"),
		map[string]any{"exact": true}, &resp)
	if status == http.StatusNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return resp.Result.Count, nil
}

// Close releases idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do sends a JSON request and decodes the JSON response into out.
// The HTTP status is returned alongside any error so callers can treat 404 specially.
func (s *Store) do(ctx context.Context, method, endpoint string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("qdrant %s %s failed: %s: %s",
			method, endpoint, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// pointID returns id when it is already a UUID, otherwise a name-based UUID.
// Qdrant only accepts UUIDs or unsigned integers as point IDs.
// Derived IDs are stable so re-upserting a chunk overwrites its point.
func pointID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}

func checkBatch(chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d != %d", len(chunks), len(vectors))
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return errors.New("empty batch")
	}
	return nil
}
