// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the capability resolver and flag store over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/canplay/internal/api/middleware"
	"github.com/ManuGH/canplay/internal/capability"
	"github.com/ManuGH/canplay/internal/flags"
	"github.com/ManuGH/canplay/internal/health"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Config holds the HTTP surface settings.
type Config struct {
	Version string
	// APIToken guards flag writes; empty leaves them open.
	APIToken string

	MaxBatch   int
	BatchQPS   float64
	BatchBurst int

	RateLimitRPM   int
	TracingService string
	AccessLog      bool
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Resolver *capability.Resolver
	Flags    flags.Store
	Health   *health.Manager
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

// Server is the canplayd HTTP surface.
type Server struct {
	cfg      Config
	resolver *capability.Resolver
	flags    flags.Store
	health   *health.Manager
	gatherer prometheus.Gatherer
	batch    *rate.Limiter
	router   chi.Router
}

// New validates deps and builds the router.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Resolver == nil {
		return nil, errors.New("api: resolver is required")
	}
	if deps.Flags == nil {
		return nil, errors.New("api: flag store is required")
	}
	if cfg.MaxBatch <= 0 {
		return nil, errors.New("api: max batch must be positive")
	}
	if cfg.BatchBurst < cfg.MaxBatch {
		return nil, errors.New("api: batch burst must cover max batch")
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(cfg.Version)
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:      cfg,
		resolver: deps.Resolver,
		flags:    deps.Flags,
		health:   deps.Health,
		gatherer: deps.Gatherer,
		batch:    rate.NewLimiter(rate.Limit(cfg.BatchQPS), cfg.BatchBurst),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		TracingService:        s.cfg.TracingService,
		EnableLogging:         s.cfg.AccessLog,
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, codeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, codeMethodNotAllowed, r.Method+" not allowed")
	})

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimitRPM > 0 {
			r.Use(middleware.APIRateLimit(s.cfg.RateLimitRPM))
		}
		r.Get("/canplay", s.handleCanPlay)
		r.Post("/canplay", s.handleCanPlayBatch)
		r.Get("/catalog", s.handleCatalog)
		r.Get("/flags", s.handleListFlags)
		r.With(s.requireToken).Put("/flags/{name}", s.handleSetFlag)
	})

	return r
}
