// Package api serves the knowledge base over HTTP using echo.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/custodia-labs/askdocs/internal/core/ports/driven"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// ShutdownTimeout bounds how long in-flight requests may finish after stop.
const ShutdownTimeout = 10 * time.Second

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":5000".
	Addr string
	// BodyLimit caps request bodies, in echo notation ("50M").
	BodyLimit string
	// Limiter throttles /ask and /knowledge_base per client IP. Nil disables it.
	Limiter driven.RateLimiter
}

// Server is the HTTP front end.
type Server struct {
	echo *echo.Echo
	addr string
}

// NewServer builds the router with its middleware stack and routes.
func NewServer(h *Handler, cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("Panic on %s: %v\n%s", c.Path(), err, stack)
			return err
		},
	}))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("%s %s %d %s [%s]", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	var limited []echo.MiddlewareFunc
	if cfg.Limiter != nil {
		limited = append(limited, RateLimit(cfg.Limiter))
	}

	e.POST("/ask", h.HandleAsk, limited...)
	e.POST("/knowledge_base", h.HandleUpload, limited...)
	e.GET("/health", h.HandleHealth)

	return &Server{echo: e, addr: cfg.Addr}
}

// Mount attaches an extra handler, such as the Slack events endpoint.
func (s *Server) Mount(method, path string, handler http.Handler) {
	s.echo.Add(method, path, echo.WrapHandler(handler))
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// RateLimit throttles requests per client IP using limiter.
func RateLimit(limiter driven.RateLimiter) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: limiterStore{limiter: limiter},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(_ echo.Context, identifier string, _ error) error {
			logger.Debug("Rate limit exceeded for %s", identifier)
			return &APIError{Status: http.StatusTooManyRequests, Message: MsgRateLimited}
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return NewInternalError(http.StatusText(http.StatusInternalServerError))
		},
	})
}

// limiterStore adapts a driven.RateLimiter to echo's store interface.
// A backend failure lets the request through.
type limiterStore struct {
	limiter driven.RateLimiter
}

func (s limiterStore) Allow(identifier string) (bool, error) {
	ok, err := s.limiter.Allow(context.Background(), identifier)
	if err != nil {
		logger.Warn("Rate limiter %s failed, allowing request: %v", s.limiter.Name(), err)
		return true, nil
	}
	return ok, nil
}
