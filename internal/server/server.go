// Package server exposes the flyer pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz                liveness
//	POST /flyers                 run the pipeline for {"prompt": ...}
//	GET  /flyers                 recent flyers, when the store can list them
//	GET  /flyers/{id}            archived record
//	GET  /flyers/{id}/html       best document
//	GET  /flyers/{id}/preview    self-contained document with inlined images
package server

import (
	"context"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flyersmith/pkg/pipeline"
	"github.com/matzehuels/flyersmith/pkg/store"
)

// Defaults for Config fields left zero.
const (
	DefaultMaxConcurrent   = 4
	DefaultShutdownTimeout = 30 * time.Second
	maxBodyBytes           = 64 << 10
)

// Config configures a Server.
type Config struct {
	Addr            string
	OutputDir       string
	Rounds          int
	LegibilityCap   bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// MaxConcurrent bounds simultaneous pipeline runs. Further requests
	// are answered with 429.
	MaxConcurrent int
}

func (c *Config) setDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = pipeline.DefaultOutputDir
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Server serves flyer runs and archived flyers.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	cfg    Config
	logger *log.Logger
	slots  chan struct{}
	router chi.Router
}

// New creates a server. If st is nil, runs are not archived and the
// lookup routes answer 404. If logger is nil, output is discarded.
func New(runner *pipeline.Runner, st store.Store, cfg Config, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Server{
		runner: runner,
		store:  st,
		cfg:    cfg,
		logger: logger,
		slots:  make(chan struct{}, cfg.MaxConcurrent),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/flyers", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Get("/html", s.handleHTML)
			r.Get("/preview", s.handlePreview)
		})
	})
	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully, letting running requests finish within the shutdown
// timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "output", s.cfg.OutputDir)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) assetFS() fs.FS {
	return os.DirFS(s.cfg.OutputDir)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
