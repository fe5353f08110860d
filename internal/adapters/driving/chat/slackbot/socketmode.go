package slackbot

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/chat"
	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// NewClient creates a Web API client for the bot token, resolving the bot's
// own user ID.
func NewClient(ctx context.Context, s domain.SlackSettings) (*slack.Client, string, error) {
	if s.BotToken == "" {
		return nil, "", fmt.Errorf("%w: slack bot token is required", domain.ErrInvalidInput)
	}
	var opts []slack.Option
	if s.AppToken != "" {
		opts = append(opts, slack.OptionAppLevelToken(s.AppToken))
	}
	api := slack.New(s.BotToken, opts...)

	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, "", domain.Upstream("slack auth test", err)
	}
	logger.Debug("Slack bot authenticated as %s (%s)", auth.User, auth.UserID)
	return api, auth.UserID, nil
}

// RunSocketMode connects over Socket Mode and answers events until ctx ends.
func RunSocketMode(ctx context.Context, api *slack.Client, bot *chat.Bot, botUserID string) error {
	client := socketmode.New(api)
	responder := NewResponder(bot, api, botUserID)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-client.Events:
				if !ok {
					return
				}
				handleSocketEvent(ctx, client, responder, evt)
			}
		}
	}()

	logger.Info("Slack bot connecting in Socket Mode")
	if err := client.RunContext(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("slack socket mode: %w", err)
	}
	return nil
}

func handleSocketEvent(ctx context.Context, client *socketmode.Client, responder *Responder, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logger.Debug("Slack: connecting")
	case socketmode.EventTypeConnected:
		logger.Info("Slack: connected")
	case socketmode.EventTypeConnectionError:
		logger.Warn("Slack: connection error, retrying")
	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			client.Ack(*evt.Request)
		}
		go responder.HandleEvent(ctx, event)
	}
}
