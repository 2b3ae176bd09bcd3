// Package server provides the HTTP server and routing for openfolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/openfolio/openfolio/internal/config"
	"github.com/openfolio/openfolio/internal/database"
	"github.com/openfolio/openfolio/internal/modules/assets"
	assetshandlers "github.com/openfolio/openfolio/internal/modules/assets/handlers"
	"github.com/openfolio/openfolio/internal/modules/holdings"
	"github.com/openfolio/openfolio/internal/modules/reconcile"
	reconcilehandlers "github.com/openfolio/openfolio/internal/modules/reconcile/handlers"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	PortfolioDB *database.DB
	Config      *config.Config
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	portfolioDB *database.DB
	cfg         *config.Config

	sessions *reconcile.SessionStore
}

// New creates a new HTTP server and wires the import pipeline
func New(cfg Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		portfolioDB: cfg.PortfolioDB,
		cfg:         cfg.Config,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes wires repositories, services and handlers, then mounts routes
func (s *Server) setupRoutes() {
	db := s.portfolioDB.Conn()

	assetRepo := assets.NewAssetRepository(db, s.log)
	holdingsRepo := holdings.NewHoldingsRepository(db, s.log)

	normalizer := reconcile.NewNameNormalizer()
	scorer := reconcile.NewSimilarityScorer()
	classifier := reconcile.NewMatchClassifier(normalizer, scorer)
	parser := reconcile.NewSpreadsheetParser()
	s.sessions = reconcile.NewSessionStore(s.cfg.SessionTTL, s.log)

	engine := reconcile.NewReconciliationEngine(assetRepo, parser, classifier, s.sessions, s.log)
	executor := reconcile.NewImportExecutor(s.sessions, assetRepo, holdingsRepo, s.log)

	reconcileHandler := reconcilehandlers.NewHandler(engine, executor, s.cfg.MaxUploadBytes, s.log)
	assetsHandler := assetshandlers.NewHandler(assetRepo, holdingsRepo, s.log)
	systemHandlers := NewSystemHandlers(s.log, s.portfolioDB, s.sessions)

	s.router.Get("/health", systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		reconcileHandler.RegisterRoutes(r)
		assetsHandler.RegisterRoutes(r)

		r.Get("/health", systemHandlers.HandleHealth)
		r.Get("/system/status", systemHandlers.HandleSystemStatus)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
