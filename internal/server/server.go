package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/HolgerKurtz/meta-ads-insights/internal/handler"
	"github.com/HolgerKurtz/meta-ads-insights/internal/server/middleware"
	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	// RateLimit is requests per minute per client IP on /api routes. Zero
	// disables limiting.
	RateLimit int
}

// DefaultConfig returns a Config with local defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "127.0.0.1",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimit:       120,
	}
}

// Server is the JSON API in front of the insights pipeline. It owns the Chi
// router and the shared fetch cache.
type Server struct {
	cfg        Config
	router     chi.Router
	svc        *service.InsightsService
	cache      handler.Cache
	doc        *openapi3.T
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, svc *service.InsightsService, cache handler.Cache, doc *openapi3.T, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		cache:  cache,
		doc:    doc,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chimw.Compress(5))

	// Set before Route so the /api/v1 subrouter inherits them.
	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// --- Health checks ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.doc).ServeSpec)

	// --- API routes ---
	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(s.cfg.RateLimit))
		}

		schemaHandler := handler.NewSchemaHandler(s.svc.Registry())
		insightsHandler := handler.NewInsightsHandler(s.svc, s.cache, s.logger)

		r.Get("/schema", schemaHandler.GetSchema)
		r.Post("/url", insightsHandler.BuildURL)
		r.Post("/insights", insightsHandler.Run)

		r.Get("/cache", insightsHandler.CacheStats)
		r.Delete("/cache", insightsHandler.PurgeCache)
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. The pipeline has no backing store, so
// readiness means a registry is loaded; cache counters are included for
// operators.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]any{"registry": "ok"}

	if s.svc == nil || s.svc.Registry() == nil {
		checks["registry"] = "error: not loaded"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	if s.cache != nil {
		checks["cache"] = s.cache.Stats()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
