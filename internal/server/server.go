// Package server provides the HTTP query API for modelindex.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/modelindex/internal/config"
	"github.com/hyperjump/modelindex/internal/keyword"
	"github.com/hyperjump/modelindex/internal/project"
	"github.com/hyperjump/modelindex/internal/search"
	"go.uber.org/zap"
)

// Server is the HTTP server for the modelindex API.
type Server struct {
	project *project.Project
	keyword keyword.Index  // optional; nil disables search
	search  *search.Engine // built over keyword when it is set
	config  *config.Config
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	p *project.Project,
	kw keyword.Index,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		project: p,
		keyword: kw,
		config:  cfg,
		logger:  logger,
	}
	if kw != nil {
		var searchCfg *config.SearchConfig
		if cfg != nil {
			searchCfg = &cfg.Search
		}
		srv.search = search.NewEngine(kw, searchCfg)
	}
	return srv
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/metadata", s.handleMetadata)
		r.Get("/ids/{id}", s.handleResolveID)
		r.Get("/references/{id}", s.handleReferences)
		r.Get("/errors", s.handleErrors)
		r.Get("/links/unresolved", s.handleUnresolved)
		r.Get("/search", s.handleSearch)
		r.Post("/reindex", s.handleReindex)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           middleware.Logger(s.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
