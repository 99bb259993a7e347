// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline operations as a JSON HTTP API for
// external dashboards.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-trends/internal/store"
	"github.com/pdiddy/arxiv-trends/pkg/types"
)

const defaultAddr = ":8080"

// requestTimeout bounds a single request. Ingest classifies every new
// paper before responding, so this is deliberately generous.
const requestTimeout = 5 * time.Minute

// Operations is the pipeline surface the API serves.
type Operations interface {
	Ingest(ctx context.Context, w io.Writer) (*types.IngestResult, error)
	GenerateReport(ctx context.Context, runID string, previewOnly bool) (*types.ReportResult, error)
	LatestReport(ctx context.Context) (*types.ReportSummary, error)
	TopicAggregations(ctx context.Context, runID string) ([]types.TopicAggregation, error)
	Stats(ctx context.Context) (store.Stats, error)
}

// Server is the HTTP API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	ops        Operations
	cfg        types.ServerConfig
	log        *zap.Logger
}

// New assembles the router, middleware, and routes. A nil logger is
// replaced with a no-op logger.
func New(ops Operations, cfg types.ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}

	s := &Server{
		router: chi.NewRouter(),
		ops:    ops,
		cfg:    cfg,
		log:    log,
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(requestTimeout))

	if len(s.cfg.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/ingest", s.handleIngest)
		r.Post("/reports", s.handleGenerateReport)
		r.Get("/reports/latest", s.handleLatestReport)
		r.Get("/runs/{runID}/topics", s.handleRunTopics)
	})
}

// Start runs the server until it is shut down or fails.
func (s *Server) Start() error {
	s.log.Info("starting http server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Router exposes the chi router for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
