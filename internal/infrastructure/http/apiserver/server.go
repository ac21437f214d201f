// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alchemorsel/nutrilabel/internal/infrastructure/config"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/nutrilabel/internal/infrastructure/monitoring"
	"github.com/alchemorsel/nutrilabel/internal/ports/inbound"
	"github.com/alchemorsel/nutrilabel/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// APIServer represents the JSON API HTTP server
type APIServer struct {
	config         *config.Config
	logger         *zap.Logger
	server         *http.Server
	router         *chi.Mux
	labelService   inbound.LabelService
	metrics        *monitoring.MetricsCollector
	tracer         trace.Tracer
	health         *healthcheck.HealthCheck
	openAPIHandler *OpenAPIHandler
}

// NewAPIServer creates a new API server instance. A nil tracer disables
// request spans.
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	labelService inbound.LabelService,
	metrics *monitoring.MetricsCollector,
	tracer trace.Tracer,
	health *healthcheck.HealthCheck,
) *APIServer {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	server := &APIServer{
		config:         cfg,
		logger:         log.Named("api-server"),
		labelService:   labelService,
		metrics:        metrics,
		tracer:         tracer,
		health:         health,
		openAPIHandler: NewOpenAPIHandler(log),
	}

	server.router = server.setupRoutes()
	server.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        server.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return server
}

// setupRoutes configures the API routes
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing(s.tracer))
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	r.Use(middleware.Security())
	r.Use(middleware.CORS())
	r.Use(chimiddleware.Timeout(s.config.Server.WriteTimeout))
	r.Use(chimiddleware.Compress(5))

	// Operational endpoints
	if s.health != nil {
		r.Get("/health", s.health.Handler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/api/v1/openapi.yaml", s.openAPIHandler.ServeOpenAPISpec)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.config.RateLimit))
		r.Use(middleware.JSONOnly(s.config.Server.MaxBodyBytes))
		handlers.NewAPIHandlers(s.labelService, s.logger).Routes(r)
	})

	return r
}

// Handler returns the root HTTP handler
func (s *APIServer) Handler() http.Handler {
	return s.router
}

// Start starts the API HTTP server
func (s *APIServer) Start() error {
	s.logger.Info("Starting JSON API server", zap.String("address", s.server.Addr))

	return s.server.ListenAndServe()
}

// Server returns the underlying HTTP server instance
func (s *APIServer) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the API server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}
