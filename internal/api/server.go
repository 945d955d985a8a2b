// Package api provides the HTTP surface of the gateway: the client-facing
// SSE connect endpoint, the controller-facing send endpoint, health probes,
// and the huma-based internal ops API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/streamgateapp/streamgate/internal/callback"
	"github.com/streamgateapp/streamgate/internal/config"
	"github.com/streamgateapp/streamgate/internal/sse"
	"github.com/streamgateapp/streamgate/internal/validation"
)

// Version is the gateway version reported by the ops API.
const Version = "0.3.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg        *config.Config
	manager    *sse.Manager
	callbacks  *callback.Client
	sseHandler *sse.Handler
	validator  *validation.Validator
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	instanceID string
	startedAt  time.Time

	connectLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, manager *sse.Manager, callbacks *callback.Client, instanceID string, logger *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		manager:    manager,
		callbacks:  callbacks,
		sseHandler: sse.NewHandler(manager, callbacks, logger),
		validator:  validation.New(),
		router:     chi.NewRouter(),
		logger:     logger,
		instanceID: instanceID,
		startedAt:  time.Now(),
	}

	if cfg.SSE.ConnectRatePerMinute > 0 {
		s.connectLimiter = NewRateLimiter(cfg.SSE.ConnectRatePerMinute, time.Minute, cfg.SSE.ConnectRatePerMinute)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("StreamGate Internal API", Version)
	humaConfig.OpenAPIPath = "/internal/openapi"
	humaConfig.DocsPath = "/internal/docs"
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	s.registerStatsRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.connectLimiter != nil {
		s.connectLimiter.Stop()
	}
}

// setupMiddleware configures the middleware stack. No Compress: response
// buffering breaks SSE delivery.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health probes.
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// Client-facing SSE endpoint. The bare path and every subpath connect;
	// the request path only matters as callback payload.
	s.router.Route("/sse", func(r chi.Router) {
		if s.connectLimiter != nil {
			r.Use(RateLimitMiddleware(s.connectLimiter, s.logger))
		}
		r.Get("/", s.sseHandler.ServeHTTP)
		r.Get("/*", s.sseHandler.ServeHTTP)
	})

	// Controller-facing send endpoint.
	s.router.Post("/internal/send", s.handleSend)
}
