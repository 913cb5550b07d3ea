// Package server exposes the construction pipeline over HTTP.
//
// # Routes
//
//	GET  /healthz                         liveness and build version
//	GET  /metrics                         Prometheus metrics
//	GET  /v1/topologies                   built-in topologies
//	GET  /v1/topologies/{name}            one topology definition
//	GET  /v1/topologies/{name}/diagram    topology drawing (?format=svg|dot|png|pdf)
//	POST /v1/constructions                build a molecule from inline blocks
//	GET  /v1/constructions                recent constructions
//	GET  /v1/constructions/{id}           one construction record
//	GET  /v1/constructions/{id}/{format}  a construction exported as a file
//
// Building blocks are always sent inline: the server never reads paths
// named by a request.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/molforge/pkg/observability"
	"github.com/matzehuels/molforge/pkg/pipeline"
	"github.com/matzehuels/molforge/pkg/store"
)

// DefaultMaxBodyBytes bounds a construction request.
const DefaultMaxBodyBytes = 32 << 20

// Options configures a Server.
type Options struct {
	// MaxBodyBytes bounds request bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Gatherer serves /metrics. Nil means the default Prometheus registry.
	Gatherer prometheus.Gatherer
	// BuildTimeout bounds one construction. Zero means no limit.
	BuildTimeout time.Duration
}

// Server handles the HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	opts   Options
	router chi.Router
}

// New creates a server backed by runner and st.
func New(runner *pipeline.Runner, st store.Store, logger *log.Logger, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, store: st, logger: logger, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/topologies", s.handleListTopologies)
		r.Get("/topologies/{name}", s.handleGetTopology)
		r.Get("/topologies/{name}/diagram", s.handleTopologyDiagram)

		r.Post("/constructions", s.handleCreateConstruction)
		r.Get("/constructions", s.handleListConstructions)
		r.Get("/constructions/{id}", s.handleGetConstruction)
		r.Get("/constructions/{id}/{format}", s.handleExportConstruction)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// observe logs every request and reports it to the HTTP hooks under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, route, status, elapsed)
		s.logger.Debug("http request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
