// Package server exposes the batch enrichment API over HTTP.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/enrich-cli/internal/enrich"
	"github.com/sells-group/enrich-cli/internal/match"
	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/resilience"
	"github.com/sells-group/enrich-cli/internal/store"
	"github.com/sells-group/enrich-cli/pkg/apollo"
)

// SourceFactory builds the lookup client used for one batch. The stub source
// is seeded with the batch's own records; a live client ignores them.
type SourceFactory func(records []model.Record) apollo.Client

// Options configures a Server.
type Options struct {
	Store    store.Store
	Scorer   *match.Scorer
	Retry    resilience.RetryConfig
	OrchCfg  enrich.OrchestratorConfig
	Source   SourceFactory
	StubMode bool
}

// Server handles upload, analysis, polling, and export requests. Analysis
// runs detach from their originating request: they inherit the server's base
// context so they survive the HTTP request but stop on shutdown.
type Server struct {
	store    store.Store
	scorer   *match.Scorer
	retry    resilience.RetryConfig
	orchCfg  enrich.OrchestratorConfig
	source   SourceFactory
	stubMode bool

	baseCtx context.Context
	cancel  context.CancelFunc
	runs    sync.WaitGroup
}

// New creates a Server.
func New(opts Options) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		store:    opts.Store,
		scorer:   opts.Scorer,
		retry:    opts.Retry,
		orchCfg:  opts.OrchCfg,
		source:   opts.Source,
		stubMode: opts.StubMode,
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Router builds the HTTP routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/source/status", s.handleSourceStatus)
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", s.handleUpload)
			r.Get("/", s.handleList)
			r.Route("/{batchID}", func(r chi.Router) {
				r.Get("/", s.handleGetBatch)
				r.Post("/analyze", s.handleAnalyze)
				r.Get("/export", s.handleExport)
			})
		})
	})

	return r
}

// Shutdown stops accepting new analysis runs and waits for in-flight runs to
// persist their progress, up to the context's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// newOrchestrator wires the per-batch processing chain.
func (s *Server) newOrchestrator(records []model.Record) *enrich.Orchestrator {
	resolver := enrich.NewResolver(s.source(records), s.scorer, s.retry)
	return enrich.NewOrchestrator(s.store, resolver, s.orchCfg)
}

// sourceHealthy probes the active source with a short deadline.
func (s *Server) sourceHealthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.source(nil).Healthcheck(ctx) == nil
}
