package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// MsgQueryRequired is returned for an empty question.
const MsgQueryRequired = "Query required"

// QueryService answers questions from the index.
type QueryService struct {
	index     *Index
	llm       driven.LLMService
	prompts   driven.PromptStore
	k         int
	threshold float64
	genOpts   driven.GenerateOptions
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithPromptStore overrides the answer prompt from an editable store.
func WithPromptStore(store driven.PromptStore) QueryOption {
	return func(s *QueryService) {
		s.prompts = store
	}
}

// WithGenerateOptions sets LLM generation parameters.
func WithGenerateOptions(opts driven.GenerateOptions) QueryOption {
	return func(s *QueryService) {
		s.genOpts = opts
	}
}

// NewQueryService creates a query service retrieving k chunks with at
// least threshold similarity.
func NewQueryService(index *Index, llm driven.LLMService, k int, threshold float64, opts ...QueryOption) *QueryService {
	s := &QueryService{
		index:     index,
		llm:       llm,
		k:         k,
		threshold: threshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer retrieves the best chunks for question and asks the LLM to answer
// from them. With no qualifying chunks the LLM still runs on an empty
// context. Citations follow retrieval order.
func (s *QueryService) Answer(ctx context.Context, question string) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.Validation(MsgQueryRequired)
	}

	logger.Section("Query")
	logger.Debug("Question: %q", question)

	hits, err := s.index.Search(ctx, question, s.k, s.threshold)
	if err != nil {
		return nil, err
	}

	prompt := RenderPrompt(loadPrompt(s.prompts), hits, question)
	logger.Debug("Prompt: %d chars from %d passages", len(prompt), len(hits))

	answer, err := s.llm.Generate(ctx, prompt, s.genOpts)
	if err != nil {
		return nil, domain.Upstream("generate answer", err)
	}

	sources := make([]domain.Citation, 0, len(hits))
	for i := range hits {
		sources = append(sources, hits[i].Chunk.Citation())
	}

	return &domain.QueryResult{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}
