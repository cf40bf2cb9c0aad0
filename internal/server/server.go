// Package server exposes layout, rendering and interactive editing sessions
// over HTTP.
//
// Stateless endpoints (/v1/layout, /v1/render) go through a cached
// [pipeline.Runner]. Session endpoints load a [session.Session] from the
// store, apply one operation and write it back. Operations on the same
// session are serialized so the drag engine only ever sees one caller.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/erdtower/pkg/diagram"
	"github.com/matzehuels/erdtower/pkg/pipeline"
	"github.com/matzehuels/erdtower/pkg/session"
	"github.com/matzehuels/erdtower/pkg/solver"
)

const (
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxBodyBytes    = 4 << 20
	DefaultCleanupInterval = 10 * time.Minute

	shutdownTimeout = 10 * time.Second
)

// Options tunes the server. Zero values take the defaults above.
type Options struct {
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
	SessionTTL      time.Duration
	CleanupInterval time.Duration

	// Session layout spacing. Zero keeps the builder default.
	NodeSpacing  float64
	LayerSpacing float64
}

func (o *Options) setDefaults() {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.SessionTTL <= 0 {
		o.SessionTTL = session.DefaultTTL
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
}

// Server handles the erdtower HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  session.Store
	logger *log.Logger
	opts   Options
	locks  *keyedMutex
}

// New creates a server. The runner's solver also lays out sessions.
// A nil logger discards output.
func New(runner *pipeline.Runner, store session.Store, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	opts.setDefaults()
	return &Server{
		runner: runner,
		store:  store,
		logger: logger,
		opts:   opts,
		locks:  newKeyedMutex(),
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(api chi.Router) {
		api.Post("/layout", s.handleLayout)
		api.Post("/render", s.handleRender)

		api.Post("/sessions", s.handleCreateSession)
		api.Route("/sessions/{id}", func(sr chi.Router) {
			sr.Get("/", s.handleGetSession)
			sr.Delete("/", s.handleDeleteSession)
			sr.Post("/drag/start", s.handleDragStart)
			sr.Post("/drag/move", s.handleDragMove)
			sr.Post("/drag/end", s.handleDragEnd)
			sr.Post("/nodes/{node}/reset", s.handleResetNode)
			sr.Post("/relayout", s.handleRelayout)
			sr.Put("/direction", s.handleSetDirection)
			sr.Get("/svg", s.handleSessionSVG)
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// Expired sessions are swept every CleanupInterval.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.sweep(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) sweep(ctx context.Context) {
	t := time.NewTicker(s.opts.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.store.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
			} else if n > 0 {
				s.logger.Debug("removed expired sessions", "count", n)
			}
		}
	}
}

func (s *Server) layouter() *diagram.Layouter {
	po := pipeline.Options{NodeSpacing: s.opts.NodeSpacing, LayerSpacing: s.opts.LayerSpacing}
	return diagram.NewLayouter(s.runner.Solver, s.logger, po.BuildOptions()...)
}

func parseDirection(raw string) (solver.Direction, error) {
	if raw == "" {
		return pipeline.DefaultDirection, nil
	}
	return solver.ParseDirection(raw)
}
