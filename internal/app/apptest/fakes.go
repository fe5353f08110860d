// Package apptest provides deterministic stand-ins for the external services
// askdocs talks to, for use in tests of the front ends.
package apptest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

var (
	_ driven.EmbeddingService = (*Embedder)(nil)
	_ driven.LLMService       = (*LLM)(nil)
	_ driven.DocumentLoader   = (*TextLoader)(nil)
)

// Embedder maps text onto a fixed vocabulary: one dimension per word, set
// when the text contains it. Similarity is therefore predictable.
type Embedder struct {
	Vocab []string
}

// NewEmbedder creates an embedder over vocab.
func NewEmbedder(vocab ...string) *Embedder {
	return &Embedder{Vocab: vocab}
}

func (e *Embedder) vector(text string) []float32 {
	text = strings.ToLower(text)
	v := make([]float32, len(e.Vocab)+1)
	for i, w := range e.Vocab {
		if strings.Contains(text, w) {
			v[i] = 1
		}
	}
	v[len(e.Vocab)] = 0.01
	return v
}

// Embed implements driven.EmbeddingService.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

// EmbedBatch implements driven.EmbeddingService.
func (e *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

// Dimensions implements driven.EmbeddingService.
func (e *Embedder) Dimensions() int { return len(e.Vocab) + 1 }

// ModelName implements driven.EmbeddingService.
func (e *Embedder) ModelName() string { return "keyword" }

// Ping implements driven.EmbeddingService.
func (e *Embedder) Ping(context.Context) error { return nil }

// Close implements driven.EmbeddingService.
func (e *Embedder) Close() error { return nil }

// LLM answers with a fixed reply and records the prompts it was given.
type LLM struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Prompts []string
}

// NewLLM creates an LLM that always answers reply.
func NewLLM(reply string) *LLM {
	return &LLM{Reply: reply}
}

// Generate implements driven.LLMService.
func (l *LLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Prompts = append(l.Prompts, prompt)
	if l.Err != nil {
		return "", l.Err
	}
	return l.Reply, nil
}

// LastPrompt returns the most recent prompt.
func (l *LLM) LastPrompt() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Prompts) == 0 {
		return ""
	}
	return l.Prompts[len(l.Prompts)-1]
}

// ModelName implements driven.LLMService.
func (l *LLM) ModelName() string { return "fake" }

// Ping implements driven.LLMService.
func (l *LLM) Ping(context.Context) error { return nil }

// Close implements driven.LLMService.
func (l *LLM) Close() error { return nil }

// TextLoader treats files as plain text with pages separated by form feeds.
// Files whose content starts with "CORRUPT" fail to load.
type TextLoader struct{}

// Load implements driven.DocumentLoader.
func (TextLoader) Load(_ context.Context, path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(string(data), "CORRUPT") {
		return nil, fmt.Errorf("%s: not a valid PDF", path)
	}
	pages := strings.Split(string(data), "\f")
	docs := make([]domain.Document, len(pages))
	for i, p := range pages {
		docs[i] = domain.Document{Source: path, Page: i, Content: p}
	}
	return docs, nil
}

// Name implements driven.DocumentLoader.
func (TextLoader) Name() string { return "text" }

// Settings returns defaults rooted in dir with an in-memory vector store.
func Settings(dir string) domain.Settings {
	s := domain.DefaultSettings()
	s.Paths.DataDir = filepath.Join(dir, "db")
	s.Paths.KnowledgeBase = filepath.Join(dir, "knowledge_base")
	s.VectorStore.Kind = domain.VectorStoreMemory
	s.RateLimit.RedisURL = ""
	return s
}
