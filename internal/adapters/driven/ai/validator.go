package ai

import (
	"context"

	"github.com/custodia-labs/askdocs/internal/core/domain"
)

// CheckResult is the outcome of validating one AI provider.
type CheckResult struct {
	// Component is "embedding" or "llm".
	Component string
	Provider  domain.AIProvider
	Model     string
	Err       error
}

// OK reports whether the provider answered.
func (r CheckResult) OK() bool {
	return r.Err == nil
}

// Check builds each configured service and pings it. Both components are
// always checked so a single run reports every problem.
func Check(ctx context.Context, settings domain.Settings) []CheckResult {
	embed := CheckResult{
		Component: "embedding",
		Provider:  settings.Embedding.Provider,
		Model:     settings.Embedding.Model,
	}
	if svc, err := CreateEmbeddingService(settings.Embedding); err != nil {
		embed.Err = err
	} else {
		embed.Err = ping(ctx, svc)
		svc.Close()
	}

	llm := CheckResult{
		Component: "llm",
		Provider:  settings.LLM.Provider,
		Model:     settings.LLM.Model,
	}
	if svc, err := CreateLLMService(settings.LLM); err != nil {
		llm.Err = err
	} else {
		llm.Err = ping(ctx, svc)
		svc.Close()
	}

	return []CheckResult{embed, llm}
}
