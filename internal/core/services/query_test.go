package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
)

func TestAnswer_NotReady(t *testing.T) {
	f := newFixture(nil)

	result, err := f.query.Answer(context.Background(), "what is the turbine output?")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNotReady)
	assert.Empty(t, f.llm.prompts)
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	f := newFixture(nil)

	_, err := f.query.Answer(context.Background(), "  \n ")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, MsgQueryRequired, domain.ValidationMessage(err))
}

func TestAnswer_NoQualifyingChunksStillGenerates(t *testing.T) {
	f := newFixture(nil, "k8s.pdf")
	f.loader.pages["kb/k8s.pdf"] = []string{"kubernetes pods and services"}
	ctx := context.Background()
	_, err := f.ingest.Ingest(ctx, []string{"k8s.pdf"})
	require.NoError(t, err)

	result, err := f.query.Answer(ctx, "how do I file an invoice?")

	require.NoError(t, err)
	assert.NotNil(t, result.Sources)
	assert.Empty(t, result.Sources)
	assert.Equal(t, "I don't know based on my training data", result.Answer)
	assert.Contains(t, f.llm.lastPrompt(), "Context: \nQuestion: how do I file an invoice? [/INST]</s>")
}

func TestAnswer_CitationsFromRetrievedChunks(t *testing.T) {
	f := newFixture(nil, "doc1.pdf", "doc2.pdf")
	f.loader.pages["kb/doc1.pdf"] = []string{"intro", "turbine maintenance schedule"}
	f.loader.pages["kb/doc2.pdf"] = []string{"invoice processing"}
	f.llm.answer = "  Inspect the turbine monthly.  "
	ctx := context.Background()
	_, err := f.ingest.Reconcile(ctx)
	require.NoError(t, err)

	result, err := f.query.Answer(ctx, "turbine maintenance?")

	require.NoError(t, err)
	assert.Equal(t, "Inspect the turbine monthly.", result.Answer)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, domain.Citation{Source: "kb/doc1.pdf", Page: "1"}, result.Sources[0])
	assert.Contains(t, f.llm.lastPrompt(), "Context: turbine maintenance schedule\nQuestion: turbine maintenance?")
}

func TestAnswer_MissingMetadataDefaults(t *testing.T) {
	store := &mockStore{exists: true}
	embedder := newKeywordEmbedder("turbine")
	store.chunks = []domain.Chunk{
		{ID: "1", Content: "turbine a", Metadata: map[string]string{domain.MetaSource: "x.pdf"}},
		{ID: "2", Content: "turbine b"},
	}
	store.vectors = [][]float32{embedder.vector("turbine a"), embedder.vector("turbine b")}
	index := NewIndex(store, embedder, 0)
	require.NoError(t, index.Open(context.Background()))
	llm := &mockLLM{answer: "ok"}
	svc := NewQueryService(index, llm, 15, 0.2)

	result, err := svc.Answer(context.Background(), "turbine")

	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Citation{
		{Source: "x.pdf", Page: "N/A"},
		{Source: "Unknown", Page: "N/A"},
	}, result.Sources)
}

func TestAnswer_RespectsK(t *testing.T) {
	f := newFixture(nil, "a.pdf")
	f.loader.pages["kb/a.pdf"] = []string{"turbine 1", "turbine 2", "turbine 3", "turbine 4"}
	ctx := context.Background()
	_, err := f.ingest.Ingest(ctx, []string{"a.pdf"})
	require.NoError(t, err)
	svc := NewQueryService(f.index, f.llm, 2, 0.2)

	result, err := svc.Answer(ctx, "turbine")

	require.NoError(t, err)
	assert.Len(t, result.Sources, 2)
}

func TestAnswer_UpstreamFailures(t *testing.T) {
	t.Run("llm", func(t *testing.T) {
		f := newFixture(nil, "a.pdf")
		ctx := context.Background()
		_, err := f.ingest.Ingest(ctx, []string{"a.pdf"})
		require.NoError(t, err)
		f.llm.err = errors.New("model not found")

		_, err = f.query.Answer(ctx, "anything")

		assert.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("embedding", func(t *testing.T) {
		f := newFixture(nil, "a.pdf")
		ctx := context.Background()
		_, err := f.ingest.Ingest(ctx, []string{"a.pdf"})
		require.NoError(t, err)
		f.embedder.embedErr = errors.New("timeout")

		_, err = f.query.Answer(ctx, "anything")

		assert.ErrorIs(t, err, domain.ErrUpstream)
	})

	t.Run("store", func(t *testing.T) {
		f := newFixture(nil, "a.pdf")
		ctx := context.Background()
		_, err := f.ingest.Ingest(ctx, []string{"a.pdf"})
		require.NoError(t, err)
		f.store.searchErr = errors.New("database is locked")

		_, err = f.query.Answer(ctx, "anything")

		assert.ErrorIs(t, err, domain.ErrStorage)
	})
}

func TestAnswer_PromptStoreOverride(t *testing.T) {
	f := newFixture(nil, "a.pdf")
	ctx := context.Background()
	_, err := f.ingest.Ingest(ctx, []string{"a.pdf"})
	require.NoError(t, err)

	svc := NewQueryService(f.index, f.llm, 15, 0.2,
		WithPromptStore(&mockPromptStore{template: "Q={input}"}),
		WithGenerateOptions(driven.GenerateOptions{Temperature: 0.1}),
	)
	_, err = svc.Answer(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Q=hello", f.llm.lastPrompt())

	broken := NewQueryService(f.index, f.llm, 15, 0.2,
		WithPromptStore(&mockPromptStore{err: errors.New("missing")}))
	_, err = broken.Answer(ctx, "hello")
	require.NoError(t, err)
	assert.Contains(t, f.llm.lastPrompt(), "You are a technical assistant")
}

func TestScenario_StartupThenQuery(t *testing.T) {
	f := newFixture(nil, "doc1.pdf")
	f.loader.pages["kb/doc1.pdf"] = []string{"The kubernetes cluster runs three nodes."}
	f.llm.answer = "Three nodes."
	ctx := context.Background()

	require.NoError(t, f.index.Open(ctx))
	_, err := f.ingest.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1.pdf"}, f.ledger.names())

	result, err := f.query.Answer(ctx, "How many kubernetes nodes?")

	require.NoError(t, err)
	require.NotEmpty(t, result.Sources)
	assert.Contains(t, result.Sources[0].Source, "doc1.pdf")
}

func TestRenderPrompt(t *testing.T) {
	hits := []domain.ScoredChunk{
		{Chunk: domain.Chunk{Content: "first"}},
		{Chunk: domain.Chunk{Content: "second"}},
	}

	prompt := RenderPrompt(DefaultAnswerPrompt, hits, "why?")

	assert.Contains(t, prompt, "Context: first\n\nsecond\nQuestion: why? [/INST]</s>")
	assert.NotContains(t, prompt, "{context}")
	assert.NotContains(t, prompt, "{input}")
}
