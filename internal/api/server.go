// Package api serves the REST interface over the schema store, the canvas
// runner and the view exporter.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/rpattn/canvasdb/internal/export"
	"github.com/rpattn/canvasdb/internal/ingestion"
	"github.com/rpattn/canvasdb/internal/middleware"
	"github.com/rpattn/canvasdb/internal/repository"
	"github.com/rpattn/canvasdb/internal/runner"
	"github.com/rpattn/canvasdb/internal/schema"
)

const shutdownTimeout = 10 * time.Second

// Config holds the collaborators and settings of the API server.
type Config struct {
	Store        *repository.Store
	Schema       *schema.Service
	Runner       *runner.Runner
	Exporter     *export.Service
	Importer     *ingestion.Service
	Logger       *slog.Logger
	Addr         string
	CORSOrigins  []string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	logger *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, logger: logger}
}

// Handler builds the routed handler with its middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		middleware.Logging(s.logger),
		chimw.Recoverer,
	)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.stats)

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", s.listTables)
			r.Post("/", s.createTable)
			r.Get("/{name}", s.getTable)
			r.Delete("/{name}", s.deleteTable)
			r.Post("/{name}/fields", s.addField)
		})
		r.Patch("/fields/{id}", s.updateField)
		r.Delete("/fields/{id}", s.deleteField)

		r.Route("/t/{name}", func(r chi.Router) {
			r.Get("/", s.listRecords)
			r.Post("/", s.createRecord)
			r.Method(http.MethodPost, "/import", ingestion.NewHTTPHandler(s.cfg.Importer, s.logger))
			r.Patch("/{recordID}", s.updateRecord)
			r.Delete("/{recordID}", s.deleteRecord)
		})

		r.Route("/canvases", func(r chi.Router) {
			r.Get("/", s.listCanvases)
			r.Post("/", s.createCanvas)
			r.Post("/execute", s.executeCanvas)
			r.Post("/preview", s.previewCanvas)
			r.Get("/{id}", s.getCanvas)
			r.Patch("/{id}", s.updateCanvas)
			r.Delete("/{id}", s.deleteCanvas)
		})

		r.Get("/views", s.listViews)
		r.Route("/view/{id}", func(r chi.Router) {
			r.Get("/", s.getView)
			r.Delete("/", s.deleteView)
			r.Method(http.MethodGet, "/export", export.NewHTTPHandler(s.cfg.Exporter, s.logger))
		})
	})

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
	})
	return corsHandler.Handler(r)
}

// Serve starts the server and blocks until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	eg.Go(func() error {
		s.logger.Info("starting API server", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Info("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
