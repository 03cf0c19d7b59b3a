package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tokenPlotter/internal/app"
)

// Config controls the HTTP server.
type Config struct {
	Addr            string
	DefaultBase     string
	DefaultQuotes   []string
	Parallelism     int
	ShutdownTimeout time.Duration
	PingInterval    time.Duration
}

// Server exposes token options, ratio traces, rendered charts, and a websocket selection session.
type Server struct {
	cfg    Config
	app    *app.App
	router *mux.Router
	logger *zap.Logger
}

func New(cfg Config, a *app.App, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	s := &Server{
		cfg:    cfg,
		app:    a,
		router: mux.NewRouter(),
		logger: logger,
	}
	s.serveRoutes()
	return s
}

// Handler returns the router wrapped in CORS and zstd middleware.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(zstdMiddleware(s.router))
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) defaultBase() string {
	return s.app.DefaultBase(s.cfg.DefaultBase)
}

func (s *Server) defaultQuotes() []string {
	if len(s.cfg.DefaultQuotes) == 0 {
		return []string{s.app.Catalog().Reference()}
	}
	return append([]string(nil), s.cfg.DefaultQuotes...)
}
