// Package slackbot connects the chat bot to Slack, over Socket Mode or the
// Events API.
package slackbot

import (
	"context"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/chat"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Poster posts a message to a channel. *slack.Client implements it.
type Poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ Poster = (*slack.Client)(nil)

// Responder answers Slack events with the chat bot.
type Responder struct {
	bot       *chat.Bot
	poster    Poster
	botUserID string
}

// NewResponder creates a responder. botUserID lets the responder ignore its
// own posts; it may be empty.
func NewResponder(bot *chat.Bot, poster Poster, botUserID string) *Responder {
	return &Responder{bot: bot, poster: poster, botUserID: botUserID}
}

// HandleEvent answers a single Events API callback.
func (r *Responder) HandleEvent(ctx context.Context, event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	var (
		ev      chat.Event
		channel string
	)
	switch inner := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		// Edits, joins and other subtypes carry no new question.
		if inner.SubType != "" {
			return
		}
		ev = chat.Event{
			Kind:    chat.KindMessage,
			User:    inner.User,
			Text:    inner.Text,
			FromBot: inner.BotID != "" || (r.botUserID != "" && inner.User == r.botUserID),
		}
		channel = inner.Channel
	case *slackevents.AppMentionEvent:
		ev = chat.Event{
			Kind:    chat.KindMention,
			User:    inner.User,
			Text:    inner.Text,
			FromBot: inner.BotID != "",
		}
		channel = inner.Channel
	default:
		logger.Debug("Ignoring Slack event %s", event.InnerEvent.Type)
		return
	}

	reply, ok := r.bot.Reply(ctx, ev)
	if !ok {
		return
	}
	if _, _, err := r.poster.PostMessageContext(ctx, channel, slack.MsgOptionText(reply, false)); err != nil {
		logger.Error("Post Slack reply to %s: %v", channel, err)
	}
}
