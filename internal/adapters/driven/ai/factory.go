// Package ai builds the embedding and generation adapters named in settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/askdocs/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/askdocs/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

// PingTimeout is the maximum time to wait for service connectivity validation.
const PingTimeout = 5 * time.Second

// Services holds the AI adapters used by the core.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases both services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// New creates both services without contacting them.
func New(settings domain.Settings) (*Services, error) {
	embed, err := CreateEmbeddingService(settings.Embedding)
	if err != nil {
		return nil, err
	}
	llm, err := CreateLLMService(settings.LLM)
	if err != nil {
		embed.Close()
		return nil, err
	}
	return &Services{Embedding: embed, LLM: llm}, nil
}

// CreateEmbeddingService creates the embedding adapter for the configured provider.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.ConfigFromSettings(settings)), nil

	case domain.AIProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.ConfigFromSettings(settings))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrInvalidInput)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %q", domain.ErrInvalidInput, settings.Provider)
	}
}

// CreateLLMService creates the generation adapter for the configured provider.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		svc = ollamallm.NewLLMService(ollamallm.ConfigFromSettings(settings))

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.ConfigFromSettings(settings))

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.ConfigFromSettings(settings))

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %q", domain.ErrInvalidInput, settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// GenerateOptions maps LLM settings onto per-request generation options.
func GenerateOptions(settings domain.LLMSettings) driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	}
}

// pinger is satisfied by both service kinds.
type pinger interface {
	Ping(ctx context.Context) error
}

// ping checks connectivity with PingTimeout applied on top of ctx.
func ping(ctx context.Context, svc pinger) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
