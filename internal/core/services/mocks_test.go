package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLedger implements driven.LedgerStore in memory.
type mockLedger struct {
	mu         sync.Mutex
	set        domain.FileSet
	loadErr    error
	mergeErr   error
	mergeCalls int
}

func newMockLedger(names ...string) *mockLedger {
	return &mockLedger{set: domain.NewFileSet(names...)}
}

func (m *mockLedger) Load(_ context.Context) (domain.FileSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.set.Union(nil), nil
}

func (m *mockLedger) Merge(_ context.Context, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mergeCalls++
	if m.mergeErr != nil {
		return m.mergeErr
	}
	m.set.Add(names...)
	return nil
}

func (m *mockLedger) Path() string { return "mock-ledger" }

func (m *mockLedger) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set.Sorted()
}

// mockKB implements driven.KnowledgeBase in memory.
type mockKB struct {
	mu      sync.Mutex
	files   map[string][]byte
	saveErr error
	saves   []string

	// afterSave runs once a save has been stored, outside the mutex.
	afterSave func(name string)
}

func newMockKB(names ...string) *mockKB {
	kb := &mockKB{files: make(map[string][]byte)}
	for _, n := range names {
		kb.files[n] = []byte("%PDF-1.4 " + n)
	}
	return kb
}

func (m *mockKB) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.files))
	for n := range m.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockKB) Save(_ context.Context, name string, r io.Reader) error {
	if err := m.store(name, r); err != nil {
		return err
	}
	if m.afterSave != nil {
		m.afterSave(name)
	}
	return nil
}

func (m *mockKB) store(name string, r io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, name)
	if m.saveErr != nil {
		return m.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	m.files[name] = buf.Bytes()
	return nil
}

func (m *mockKB) Path(name string) string { return "kb/" + name }

func (m *mockKB) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

// mockLoader implements driven.DocumentLoader with canned pages per path.
type mockLoader struct {
	mu    sync.Mutex
	pages map[string][]string
	errs  map[string]error
	calls []string
}

func newMockLoader() *mockLoader {
	return &mockLoader{pages: make(map[string][]string), errs: make(map[string]error)}
}

func (m *mockLoader) Load(_ context.Context, path string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, path)
	if err := m.errs[path]; err != nil {
		return nil, err
	}
	pages, ok := m.pages[path]
	if !ok {
		pages = []string{"default content of " + path}
	}
	docs := make([]domain.Document, len(pages))
	for i, p := range pages {
		docs[i] = domain.Document{Source: path, Page: i, Content: p}
	}
	return docs, nil
}

func (m *mockLoader) Name() string { return "mock" }

func (m *mockLoader) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockSplitter emits one chunk per non-empty document.
type mockSplitter struct {
	mu    sync.Mutex
	calls int
}

func (m *mockSplitter) Split(docs []domain.Document) []domain.Chunk {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	var chunks []domain.Chunk
	for _, d := range docs {
		if d.Content == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ID:       d.Source + "#" + d.Metadata()[domain.MetaPage],
			Content:  d.Content,
			Metadata: d.Metadata(),
		})
	}
	return chunks
}

func (m *mockSplitter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// keywordEmbedder maps text onto a fixed vocabulary so similarity is predictable.
type keywordEmbedder struct {
	vocab    []string
	embedErr error
}

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (e *keywordEmbedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(e.vocab)+1)
	for i, w := range e.vocab {
		if strings.Contains(text, w) {
			v[i] = 1
		}
	}
	// Small constant keeps zero vectors out of cosine.
	v[len(e.vocab)] = 0.01
	return v
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	return e.vector(text), nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *keywordEmbedder) Dimensions() int            { return len(e.vocab) + 1 }
func (e *keywordEmbedder) ModelName() string          { return "keyword" }
func (e *keywordEmbedder) Ping(context.Context) error { return nil }
func (e *keywordEmbedder) Close() error               { return nil }

// mockStore implements driven.VectorStore with brute-force cosine search.
type mockStore struct {
	mu          sync.Mutex
	exists      bool
	chunks      []domain.Chunk
	vectors     [][]float32
	createCalls int
	appendCalls int
	writeErr    error
	searchErr   error
}

func (m *mockStore) Exists(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists, nil
}

func (m *mockStore) Create(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.exists = true
	m.chunks = append(m.chunks, chunks...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

func (m *mockStore) Append(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendCalls++
	if m.writeErr != nil {
		return m.writeErr
	}
	if !m.exists {
		return errors.New("append before create")
	}
	m.chunks = append(m.chunks, chunks...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

func (m *mockStore) Search(_ context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	hits := make([]domain.ScoredChunk, 0, len(m.chunks))
	for i := range m.chunks {
		hits = append(hits, domain.ScoredChunk{Chunk: m.chunks[i], Score: cosine(query, m.vectors[i])})
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks), nil
}

func (m *mockStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mockLLM records prompts and returns a canned answer.
type mockLLM struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string          { return "mock" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// mockPromptStore serves a fixed template.
type mockPromptStore struct {
	template string
	err      error
}

func (m *mockPromptStore) Load(string) (string, error) { return m.template, m.err }
func (m *mockPromptStore) Reload()                     {}

// fixture wires an IngestionService and QueryService over mocks.
type fixture struct {
	ledger   *mockLedger
	kb       *mockKB
	loader   *mockLoader
	splitter *mockSplitter
	embedder *keywordEmbedder
	store    *mockStore
	llm      *mockLLM
	index    *Index
	ingest   *IngestionService
	query    *QueryService
}

func newFixture(ledgerNames []string, kbNames ...string) *fixture {
	f := &fixture{
		ledger:   newMockLedger(ledgerNames...),
		kb:       newMockKB(kbNames...),
		loader:   newMockLoader(),
		splitter: &mockSplitter{},
		embedder: newKeywordEmbedder("turbine", "invoice", "kubernetes"),
		store:    &mockStore{},
		llm:      &mockLLM{answer: "I don't know based on my training data"},
	}
	f.index = NewIndex(f.store, f.embedder, 2)
	f.ingest = NewIngestionService(f.ledger, f.kb, f.loader, f.splitter, f.index, WithIngestWorkers(2))
	f.query = NewQueryService(f.index, f.llm, 15, 0.2)
	return f
}
