// Package web provides the HTTP server and handlers for the insights
// dashboard.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/insights/internal/config"
	"github.com/JonMunkholm/insights/internal/core"
	mw "github.com/JonMunkholm/insights/internal/web/middleware"
)

// Server is the HTTP server for the dashboard and its JSON API.
type Server struct {
	service *core.Service
	cfg     *config.Config
	limiter *mw.RateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		limiter: mw.NewRateLimiter(cfg.Rate),
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	s.router.Use(s.limiter.Handler)
}

// setupRoutes configures all HTTP routes. Every route except /health runs
// inside a session; every route except the progress stream is bounded by
// the request timeout.
func (s *Server) setupRoutes() {
	timeout := middleware.Timeout(s.cfg.Server.RequestTimeout)

	s.router.Get("/health", s.handleHealth)

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Use(timeout)

		r.Get("/", s.handleDashboard)
		r.Get("/tabs/{tab}", s.handleTab)
		r.Post("/runs", s.handleRunForm)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Security.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key", "Authorization", sessionHeader, middleware.RequestIDHeader},
			ExposedHeaders:   []string{"Location", "Retry-After", sessionHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(mw.APIKeyAuth(s.cfg.Security))
		r.Use(s.withSession)

		// Progress is streamed for as long as the run takes.
		r.Get("/runs/{runID}/progress", s.handleRunProgress)

		r.Group(func(r chi.Router) {
			r.Use(timeout)

			// Runs
			r.Post("/runs", s.handleStartRun)
			r.Get("/runs/{runID}", s.handleRunResult)
			r.Post("/runs/{runID}/cancel", s.handleCancelRun)

			// Report
			r.Get("/report", s.handleReport)
			r.Get("/analyses", s.handleAnalyses)
			r.Get("/surfaces", s.handleSurfaces)
			r.Get("/history", s.handleHistory)

			// Views
			r.Get("/tables/{surface}", s.handleTable)
			r.Get("/tables/{surface}/export.csv", s.handleTableExport)
			r.Get("/charts/{surface}", s.handleChart)
			r.Get("/charts/{surface}/export.png", s.handleChartExport)
		})
	})
}

// Start begins listening for HTTP requests. It also sweeps idle rate limit
// entries until the server is shut down.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout, // 0 keeps SSE streams open
		IdleTimeout:  sc.IdleTimeout,
	}

	stop := make(chan struct{})
	defer close(stop)
	go s.limiter.Run(stop, time.Minute)

	slog.Info("starting server", "addr", sc.Addr())
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Pages carry inline styles; charts are served as same-origin images.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; script-src 'none'")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
