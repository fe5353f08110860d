// Package chat turns chat-platform messages into knowledge-base answers.
// It is transport-neutral; chat/slack adapts it to Slack.
package chat

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Replies for failures. Internal detail is logged, never posted.
const (
	ReplyNotReady      = "Error: Vector store is not initialized. Please contact the administrator."
	ReplyMessageFailed = "Error processing your request"
	ReplyMentionFailed = "Error processing your mention request"
	ReplyRateLimited   = "You are sending questions too quickly. Please try again in a minute."
)

// EventKind distinguishes plain messages from mentions of the bot.
type EventKind int

const (
	// KindMessage is a message in a channel or DM the bot can read.
	KindMessage EventKind = iota
	// KindMention is a message that mentions the bot.
	KindMention
)

// Event is an inbound chat message.
type Event struct {
	Kind EventKind
	// User identifies the sender and keys the rate limiter.
	User string
	Text string
	// FromBot is set for messages posted by bots, including this one.
	FromBot bool
}

// mentionTag matches Slack-style user mentions such as <@U024BE7LH>.
var mentionTag = regexp.MustCompile(`<@[A-Z0-9]+(\|[^>]*)?>`)

// Bot answers chat events through the query service.
type Bot struct {
	query   driving.QueryService
	limiter driven.RateLimiter
}

// BotOption configures a Bot.
type BotOption func(*Bot)

// WithRateLimiter throttles questions per user.
func WithRateLimiter(l driven.RateLimiter) BotOption {
	return func(b *Bot) { b.limiter = l }
}

// NewBot creates a bot backed by query.
func NewBot(query driving.QueryService, opts ...BotOption) *Bot {
	b := &Bot{query: query}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Reply computes the response to ev. It returns false when the event should
// be ignored: bot messages and messages with no question in them.
func (b *Bot) Reply(ctx context.Context, ev Event) (string, bool) {
	if ev.FromBot {
		return "", false
	}
	question := strings.TrimSpace(mentionTag.ReplaceAllString(ev.Text, ""))
	if question == "" {
		return "", false
	}

	if b.limiter != nil && ev.User != "" {
		ok, err := b.limiter.Allow(ctx, ev.User)
		if err != nil {
			logger.Warn("Rate limiter %s failed, allowing message: %v", b.limiter.Name(), err)
		} else if !ok {
			return ReplyRateLimited, true
		}
	}

	result, err := b.query.Answer(ctx, question)
	if err != nil {
		if errors.Is(err, domain.ErrNotReady) {
			return ReplyNotReady, true
		}
		if ev.Kind == KindMention {
			logger.Error("App mention error: %v", err)
			return ReplyMentionFailed, true
		}
		logger.Error("Chat message error: %v", err)
		return ReplyMessageFailed, true
	}
	return Format(result), true
}
