package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/askdocs/internal/core/domain"
)

type stubQuery struct {
	result *domain.QueryResult
	err    error
	calls  []string
}

func (s *stubQuery) Answer(_ context.Context, q string) (*domain.QueryResult, error) {
	s.calls = append(s.calls, q)
	return s.result, s.err
}

func TestFormat(t *testing.T) {
	got := Format(&domain.QueryResult{
		Answer: "<s>[INST] Widgets are blue. [/INST]</s>",
		Sources: []domain.Citation{
			{Source: "knowledge_base/doc1.pdf", Page: "3"},
			{Source: "knowledge_base/doc2.pdf"},
		},
	})

	want := "*Answer*:\nWidgets are blue.\n\n*Sources (Citations)*:\n" +
		"> *Source*: knowledge_base/doc1.pdf (Page: 3)\n" +
		"> *Source*: knowledge_base/doc2.pdf (Page: N/A)"
	assert.Equal(t, want, got)
}

func TestFormat_NoSources(t *testing.T) {
	got := Format(&domain.QueryResult{Answer: "I don't know based on my training data"})
	assert.Equal(t, "*Answer*:\nI don't know based on my training data\n\n*Sources (Citations)*:", got)
}

func TestBot_Reply(t *testing.T) {
	q := &stubQuery{result: &domain.QueryResult{Answer: "Blue."}}
	bot := NewBot(q)

	reply, ok := bot.Reply(context.Background(), Event{Kind: KindMention, User: "U1", Text: "<@U0BOT> what colour?"})

	require.True(t, ok)
	assert.Equal(t, []string{"what colour?"}, q.calls)
	assert.Contains(t, reply, "*Answer*:\nBlue.")
}

func TestBot_IgnoresBotsAndEmpty(t *testing.T) {
	q := &stubQuery{result: &domain.QueryResult{Answer: "x"}}
	bot := NewBot(q)

	_, ok := bot.Reply(context.Background(), Event{Text: "hello", FromBot: true})
	assert.False(t, ok)
	_, ok = bot.Reply(context.Background(), Event{Kind: KindMention, Text: "<@U0BOT>  "})
	assert.False(t, ok)
	assert.Empty(t, q.calls)
}

func TestBot_Errors(t *testing.T) {
	tests := []struct {
		name string
		kind EventKind
		err  error
		want string
	}{
		{"not ready message", KindMessage, domain.ErrNotReady, ReplyNotReady},
		{"not ready mention", KindMention, domain.ErrNotReady, ReplyNotReady},
		{"message failure", KindMessage, domain.Upstream("generate", errors.New("boom")), ReplyMessageFailed},
		{"mention failure", KindMention, domain.ErrTimeout, ReplyMentionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bot := NewBot(&stubQuery{err: tt.err})

			reply, ok := bot.Reply(context.Background(), Event{Kind: tt.kind, User: "U1", Text: "q"})

			require.True(t, ok)
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestBot_RateLimitedPerUser(t *testing.T) {
	limiter, err := ratelimit.NewMemory(1, time.Minute, 0)
	require.NoError(t, err)
	q := &stubQuery{result: &domain.QueryResult{Answer: "ok"}}
	bot := NewBot(q, WithRateLimiter(limiter))
	ctx := context.Background()

	_, ok := bot.Reply(ctx, Event{User: "U1", Text: "first"})
	require.True(t, ok)

	reply, ok := bot.Reply(ctx, Event{User: "U1", Text: "second"})
	require.True(t, ok)
	assert.Equal(t, ReplyRateLimited, reply)

	_, ok = bot.Reply(ctx, Event{User: "U2", Text: "third"})
	require.True(t, ok)
	assert.Equal(t, []string{"first", "third"}, q.calls)
}
