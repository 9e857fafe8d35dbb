package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geomap-sync/internal/core/config"
	"github.com/mohammed-shakir/geomap-sync/internal/core/health"
	"github.com/mohammed-shakir/geomap-sync/internal/core/middleware"
	"github.com/mohammed-shakir/geomap-sync/internal/core/router"
)

// Options carries what the HTTP surface needs besides the session.
type Options struct {
	Metrics http.Handler   // nil disables /metrics
	Ready   []health.Check // probed by /readyz
}

// NewHandler builds the chi router serving probes, metrics and the session.
func NewHandler(logger *slog.Logger, s *router.Session, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(2*time.Second, opts.Ready...))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	router.Mount(r, s, logger)
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
