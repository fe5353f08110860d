package slackbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/custodia-labs/askdocs/internal/logger"
)

// maxEventBody caps Events API payloads.
const maxEventBody = 1 << 20

// EventsHandler serves the Slack Events API endpoint. Requests are verified
// against the signing secret; callbacks are acknowledged immediately and
// answered in the background.
type EventsHandler struct {
	ctx       context.Context
	secret    string
	responder *Responder
}

// NewEventsHandler creates the handler. Background answers run under ctx.
func NewEventsHandler(ctx context.Context, signingSecret string, responder *Responder) *EventsHandler {
	return &EventsHandler{ctx: ctx, secret: signingSecret, responder: responder}
}

// ServeHTTP implements http.Handler.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, h.secret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := sv.Write(body); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := sv.Ensure(); err != nil {
		logger.Warn("Rejected Slack request: %v", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))
	case slackevents.CallbackEvent:
		w.WriteHeader(http.StatusOK)
		// A retry repeats an event that is already being answered.
		if r.Header.Get("X-Slack-Retry-Num") == "" {
			go h.responder.HandleEvent(h.ctx, event)
		}
	default:
		w.WriteHeader(http.StatusOK)
	}
}
