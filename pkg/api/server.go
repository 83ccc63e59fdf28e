// Package api serves the datalog archive over HTTP.
//
// All routes live under /api/v1 and answer with the APIResponse envelope,
// except GET /datalogs/{id}/raw which streams the stored bytes. Requests
// must carry an X-API-Key header when the server is configured with a key.
// Prometheus metrics are served unauthenticated at /metrics, and the
// OpenAPI description at /swagger/swagger.json.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ssargent/ecudatalog/pkg/datalog"
	"github.com/ssargent/ecudatalog/pkg/log"
)

const shutdownTimeout = 10 * time.Second

// Server holds the API server state
type Server struct {
	store       DatalogStore
	config      ServerConfig
	metrics     *Metrics
	registry    *prometheus.Registry
	logger      log.Logger
	datalogOpts []datalog.Option
}

// NewServer creates a new API server. Uploaded datalogs are parsed with
// opts. Each server has its own metrics registry.
func NewServer(store DatalogStore, config ServerConfig, logger log.Logger, opts ...datalog.Option) *Server {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	reg := prometheus.NewRegistry()
	return &Server{
		store:       store,
		config:      config,
		metrics:     NewMetrics(reg),
		registry:    reg,
		logger:      logger,
		datalogOpts: opts,
	}
}

// Router returns the HTTP handler with every route configured.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// unprotected for scraping
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Get("/swagger/*", s.handleSwagger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Get("/datalogs", s.metrics.InstrumentHandler("GET", "/api/v1/datalogs", s.handleList))
		r.Post("/datalogs", s.metrics.InstrumentHandler("POST", "/api/v1/datalogs", s.handleUpload))
		r.Get("/datalogs/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/datalogs/{id}", s.handleGet))
		r.Get("/datalogs/{id}/raw", s.metrics.InstrumentHandler("GET", "/api/v1/datalogs/{id}/raw", s.handleRaw))
		r.Get("/datalogs/{id}/frames", s.metrics.InstrumentHandler("GET", "/api/v1/datalogs/{id}/frames", s.handleFrames))
		r.Delete("/datalogs/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/datalogs/{id}", s.handleDelete))
	})

	return r
}

// Addr is the listen address built from the bind host and port.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting datalog API server", log.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down datalog API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
