// Package server exposes the qualification pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/batch"
	"github.com/sells-group/lead-qualifier/internal/cache"
	"github.com/sells-group/lead-qualifier/internal/model"
)

// Qualifier runs the full pipeline for a single lead.
type Qualifier interface {
	Qualify(ctx context.Context, lead model.Lead) (model.QualifiedLead, error)
}

// Server wires the pipeline, batch orchestrator, and admission control into
// an HTTP API.
type Server struct {
	qualifier    Qualifier
	orchestrator *batch.Orchestrator
	jobs         *batch.Store
	limiter      RateLimiter
	cache        *cache.Client

	port int

	// baseCtx bounds background batch runs so they outlive the request
	// that started them but not the server.
	baseCtx context.Context

	// streamInterval is shortened in tests.
	streamInterval time.Duration
}

// Option customizes the server.
type Option func(*Server)

// WithRateLimiter enables admission control on the API routes.
func WithRateLimiter(l RateLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithCache enables cache-backed readiness reporting.
func WithCache(c *cache.Client) Option {
	return func(s *Server) { s.cache = c }
}

// WithPort sets the listen port.
func WithPort(port int) Option {
	return func(s *Server) { s.port = port }
}

// New creates a server. Batch jobs started through the API run on baseCtx.
func New(baseCtx context.Context, qualifier Qualifier, orchestrator *batch.Orchestrator, jobs *batch.Store, opts ...Option) *Server {
	s := &Server{
		qualifier:      qualifier,
		orchestrator:   orchestrator,
		jobs:           jobs,
		port:           8080,
		baseCtx:        baseCtx,
		streamInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/health/ready", s.handleReady)

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(RateLimit(s.limiter))
		}

		r.Post("/qualify", s.handleQualify)
		r.Post("/qualify/batch", s.handleBatchCreate)
		r.Get("/qualify/batch/{jobID}", s.handleBatchStatus)

		r.Route("/batch/jobs", func(r chi.Router) {
			r.Get("/", s.handleBatchList)
			r.Get("/{jobID}/results", s.handleBatchResults)
			r.Get("/{jobID}/stream", s.handleBatchStream)
			r.Delete("/{jobID}", s.handleBatchDelete)
		})
	})

	return r
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
		// No WriteTimeout: the batch stream endpoint holds its response
		// open for the lifetime of the job.
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zap.L().Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
