package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/askdocs/internal/adapters/driven/ratelimit"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/api"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/chat"
	"github.com/custodia-labs/askdocs/internal/adapters/driving/chat/slackbot"
	"github.com/custodia-labs/askdocs/internal/app"
	"github.com/custodia-labs/askdocs/internal/connectors/filesystem"
	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/core/services"
	"github.com/custodia-labs/askdocs/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and chat bot",
	Long: `Reconciles the knowledge base with the ledger, then serves:

  POST /ask             answer a question      {"query": "..."}
  POST /knowledge_base  upload and index a PDF (multipart field "file")
  GET  /health          index status

The Slack bot starts when Slack tokens are configured: Socket Mode with an
app token, the Events API at POST /slack/events with a signing secret.

Use --watch to ingest PDFs copied into the knowledge-base folder.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP port (default from config, 5000)")
	serveCmd.Flags().Bool("watch", false, "ingest PDFs as they appear in the knowledge base")
	serveCmd.Flags().Bool("no-slack", false, "do not start the Slack bot")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if port, _ := flags.GetInt("port"); port > 0 {
		settings.Server.Port = port
	}
	if watch, _ := flags.GetBool("watch"); watch {
		settings.Ingest.Watch = true
	}
	noSlack, _ := flags.GetBool("no-slack")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, r := range checkAI(ctx, settings) {
		if !r.OK() {
			logger.Warn("%s provider %s (%s) unreachable: %v. Run 'askdocs config check' for details",
				r.Component, r.Provider, r.Model, r.Err)
		}
	}

	if _, err := a.Reconcile(ctx); err != nil {
		return err
	}

	limiter, err := ratelimit.New(ctx, settings.RateLimit)
	if err != nil {
		return err
	}
	defer limiter.Close()
	logger.Info("Rate limiting %s per client (%s)", settings.RateLimit.Limit, limiter.Name())

	srv := newHTTPServer(a, limiter)
	g, gctx := errgroup.WithContext(ctx)

	if !noSlack {
		if err := startSlack(gctx, g, a, limiter, srv); err != nil {
			return err
		}
	}

	if settings.Ingest.Watch {
		w := filesystem.New(settings.Paths.KnowledgeBase)
		defer w.Close()
		auto := filesystem.NewAutoIngest(w, a.PooledIngestion(), 0)
		g.Go(func() error { return auto.Run(gctx) })
	}

	if interval := settings.Ingest.Interval(); interval > 0 {
		sched := services.NewScheduler(interval, a.PooledIngestion())
		g.Go(func() error {
			if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error { return srv.Run(gctx) })

	err = g.Wait()
	logger.Info("Stopped")
	return err
}

// newHTTPServer wires the HTTP front end to the pooled services.
func newHTTPServer(a *app.App, limiter driven.RateLimiter) *api.Server {
	handler := api.NewHandler(a.PooledQuery(), a.PooledIngestion(), a)
	return api.NewServer(handler, api.Config{
		Addr:      fmt.Sprintf(":%d", settings.Server.Port),
		BodyLimit: settings.Server.MaxUploadSize,
		Limiter:   limiter,
	})
}

// startSlack connects whichever Slack transports are configured.
func startSlack(ctx context.Context, g *errgroup.Group, a *app.App, limiter driven.RateLimiter, srv *api.Server) error {
	sl := settings.Slack
	if !sl.SocketMode() && !sl.EventsAPI() {
		logger.Debug("Slack not configured")
		return nil
	}

	client, botUserID, err := slackbot.NewClient(ctx, sl)
	if err != nil {
		return err
	}
	bot := chat.NewBot(a.PooledQuery(), chat.WithRateLimiter(limiter))

	// One transport only, so each event is answered once.
	if sl.SocketMode() {
		g.Go(func() error { return slackbot.RunSocketMode(ctx, client, bot, botUserID) })
		return nil
	}
	responder := slackbot.NewResponder(bot, client, botUserID)
	srv.Mount(http.MethodPost, "/slack/events", slackbot.NewEventsHandler(ctx, sl.SigningSecret, responder))
	logger.Info("Slack Events API enabled at /slack/events")
	return nil
}
