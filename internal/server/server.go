// Package server exposes station lookups over an HTTP JSON API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/freezethaw-cli/internal/lookup"
)

// Options configures the HTTP server.
type Options struct {
	Port           int
	RateLimitRPS   float64 // 0 disables rate limiting
	RateLimitBurst int
	CORSOrigins    []string

	// MetricsHandler serves /metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// Server serves the lookup API.
type Server struct {
	httpServer *http.Server
	svc        *lookup.Service
	log        *zap.Logger
}

// New creates a Server backed by svc.
func New(svc *lookup.Service, opts Options) *Server {
	s := &Server{
		svc: svc,
		log: zap.L().With(zap.String("component", "server")),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      s.routes(opts),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	metrics := opts.MetricsHandler
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Group(func(r chi.Router) {
		if opts.RateLimitRPS > 0 {
			burst := opts.RateLimitBurst
			if burst < 1 {
				burst = 1
			}
			r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)))
		}
		r.Get("/seasons", s.handleSeasons)
		r.Get("/seasons/{season}/summary", s.handleSummary)
		r.Get("/query", s.handleQuery)
		r.Get("/query.geojson", s.handleQueryGeoJSON)
	})

	return r
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.log.Info("http server starting", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
