// Package server provides the HTTP server and routing for Stratagem.
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

	"github.com/quantroll/stratagem/internal/config"
	"github.com/quantroll/stratagem/internal/database"
	"github.com/quantroll/stratagem/internal/modules/market"
	"github.com/quantroll/stratagem/internal/modules/model"
	"github.com/quantroll/stratagem/internal/modules/performance"
	"github.com/quantroll/stratagem/internal/modules/selection"
	"github.com/quantroll/stratagem/internal/modules/strategies"
	"github.com/quantroll/stratagem/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger
	Cfg     *config.Config

	DB         *database.DB
	Registry   *strategies.Registry
	Builder    *market.Builder
	Selector   *selection.Selector
	Store      *performance.Store
	Repo       *performance.Repository
	Elims      *performance.EliminationSet
	Calibrator *performance.Calibrator
	Trainer    *model.Trainer
	Scheduler  *scheduler.Scheduler
	Signals    *SignalHub
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	cfg        *config.Config
	db         *database.DB
	registry   *strategies.Registry
	builder    *market.Builder
	selector   *selection.Selector
	store      *performance.Store
	repo       *performance.Repository
	elims      *performance.EliminationSet
	calibrator *performance.Calibrator
	trainer    *model.Trainer
	scheduler  *scheduler.Scheduler
	signals    *SignalHub
	startedAt  time.Time
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		log:        cfg.Log.With().Str("component", "server").Logger(),
		cfg:        cfg.Cfg,
		db:         cfg.DB,
		registry:   cfg.Registry,
		builder:    cfg.Builder,
		selector:   cfg.Selector,
		store:      cfg.Store,
		repo:       cfg.Repo,
		elims:      cfg.Elims,
		calibrator: cfg.Calibrator,
		trainer:    cfg.Trainer,
		scheduler:  cfg.Scheduler,
		signals:    cfg.Signals,
		startedAt:  time.Now(),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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
		AllowedOrigins:   []string{"*"},
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

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/decide", s.handleDecide)
		r.Post("/outcomes", s.handleOutcome)

		r.Route("/variants", func(r chi.Router) {
			r.Get("/", s.handleVariants)
		})

		r.Get("/performance", s.handlePerformance)

		r.Route("/eliminations", func(r chi.Router) {
			r.Get("/", s.handleListEliminations)
			r.Post("/", s.handleSuppress)
			r.Delete("/{variant}", s.handleOverride)
		})

		r.Post("/calibrate", s.handleCalibrate)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Get("/signals/stream", s.signals.ServeHTTP)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.signals.CloseAll()
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
