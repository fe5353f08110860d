package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// fakeQdrant records collection state and answers the handful of endpoints the store uses.
type fakeQdrant struct {
	mu      sync.Mutex
	exists  bool
	size    int
	points  []map[string]any
	apiKeys []string
}

func (f *fakeQdrant) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/docs", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		switch r.Method {
		case http.MethodGet, http.MethodDelete:
			if !f.exists {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if r.Method == http.MethodDelete {
				f.exists = false
				f.points = nil
			}
		case http.MethodPut:
			var body struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Cosine", body.Vectors.Distance)
			f.exists = true
			f.size = body.Vectors.Size
		}
		_, _ = w.Write([]byte(`{"result":true}`))
	})
	mux.HandleFunc("/collections/docs/points", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body struct {
			Points []map[string]any `json:"points"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.points = append(f.points, body.Points...)
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	})
	mux.HandleFunc("/collections/docs/points/count", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !f.exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"count": len(f.points)}})
	})
	mux.HandleFunc("/collections/docs/points/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Limit       int  `json:"limit"`
			WithPayload bool `json:"with_payload"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.WithPayload)
		var result []map[string]any
		for i, p := range f.points {
			if i >= body.Limit {
				break
			}
			result = append(result, map[string]any{"score": 0.9 - 0.1*float64(i), "payload": p["payload"]})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	})
	return mux
}

func newTestStore(t *testing.T) (*Store, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	store, err := NewStore(Config{URL: srv.URL + "/", APIKey: "secret", Collection: "docs"})
	require.NoError(t, err)
	return store, fake
}

func TestNewStore_RequiresURL(t *testing.T) {
	_, err := NewStore(Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Lifecycle(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	err = store.Append(ctx, []domain.Chunk{{ID: "a"}}, [][]float32{{1, 0}})
	assert.ErrorIs(t, err, ErrNoCollection)

	chunk := domain.Chunk{
		ID:       uuid.NewString(),
		Content:  "hello",
		Position: 2,
		Metadata: map[string]string{domain.MetaSource: "kb/a.pdf", domain.MetaPage: "4"},
	}
	require.NoError(t, store.Create(ctx, []domain.Chunk{chunk}, [][]float32{{1, 0, 0}}))
	require.NoError(t, store.Append(ctx, []domain.Chunk{{ID: "plain-id", Content: "bye"}}, [][]float32{{0, 1, 0}}))

	assert.Equal(t, 3, fake.size)
	exists, err = store.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, chunk.ID, hits[0].Chunk.ID)
	assert.Equal(t, "hello", hits[0].Chunk.Content)
	assert.Equal(t, 2, hits[0].Chunk.Position)
	assert.Equal(t, "kb/a.pdf", hits[0].Chunk.Source())
	assert.Equal(t, "4", hits[0].Chunk.Page())
	assert.InDelta(t, 0.9, hits[0].Score, 1e-9)

	for _, k := range fake.apiKeys {
		assert.Equal(t, "secret", k)
	}
}

func TestStore_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store, err := NewStore(Config{URL: srv.URL, Collection: "docs"})
	require.NoError(t, err)

	_, err = store.Exists(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, err = store.Search(context.Background(), []float32{1}, 3)
	assert.Error(t, err)
}

func TestPointID(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, id, pointID(id))

	derived := pointID("chunk-1")
	_, err := uuid.Parse(derived)
	require.NoError(t, err)
	assert.Equal(t, derived, pointID("chunk-1"))
	assert.NotEqual(t, derived, pointID("chunk-2"))
}
