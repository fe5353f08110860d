package services

import (
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// DefaultAnswerPrompt is the retrieval-augmented instruction template.
const DefaultAnswerPrompt = driven.DefaultAnswerPrompt

// contextSeparator joins retrieved passages inside the prompt.
const contextSeparator = "\n\n"

// RenderPrompt fills the template placeholders.
func RenderPrompt(template string, hits []domain.ScoredChunk, question string) string {
	passages := make([]string, len(hits))
	for i := range hits {
		passages[i] = hits[i].Chunk.Content
	}
	return strings.NewReplacer(
		"{context}", strings.Join(passages, contextSeparator),
		"{input}", question,
	).Replace(template)
}

// loadPrompt reads the answer prompt from the store, falling back to the
// built-in template when the store is absent or fails.
func loadPrompt(store driven.PromptStore) string {
	if store == nil {
		return DefaultAnswerPrompt
	}
	p, err := store.Load(driven.PromptAnswer)
	if err != nil || strings.TrimSpace(p) == "" {
		if err != nil {
			logger.Debug("Prompt store: %v, using built-in prompt", err)
		}
		return DefaultAnswerPrompt
	}
	return p
}
