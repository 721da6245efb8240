package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/solar-eda/internal/chart"
	"github.com/couchcryptid/solar-eda/internal/domain"
	"github.com/couchcryptid/solar-eda/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Analyzer is the dataset service behind the dashboard.
type Analyzer interface {
	ReadinessChecker
	Datasets() []*domain.Dataset
	Dataset(name string) (*domain.Dataset, error)
	Ingest(ctx context.Context, uploads []pipeline.Upload) ([]pipeline.LoadResult, error)
	Clip(ctx context.Context, req pipeline.ClipRequest) (domain.ClipResult, error)
	Reset(ctx context.Context, name string) (*domain.Dataset, error)
	Remove(ctx context.Context, name string) error
	Render(ctx context.Context, req pipeline.ChartRequest, w io.Writer) (chart.Format, error)
}

// Server serves the dashboard, its JSON API and the health, readiness and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        Analyzer
	maxUpload  int64
	logger     *slog.Logger
}

// NewServer creates an HTTP server routing to svc. Upload bodies are capped
// at maxUpload bytes.
func NewServer(addr string, svc Analyzer, maxUpload int64, logger *slog.Logger) *Server {
	s := &Server{
		svc:       svc,
		maxUpload: maxUpload,
		logger:    logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(s.svc))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", s.handleDashboard)
	r.Post("/upload", s.handleUploadPage)
	r.Route("/datasets/{name}", func(r chi.Router) {
		r.Post("/clip", s.handleClipPage)
		r.Post("/reset", s.handleResetPage)
		r.Get("/charts/{kind}", s.handleChart)
		r.Get("/export.{ext}", s.handleExport)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/datasets", s.handleListDatasets)
		r.Post("/datasets", s.handleUploadAPI)
		r.Route("/datasets/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Delete("/", s.handleRemoveAPI)
			r.Post("/clip", s.handleClipAPI)
			r.Post("/reset", s.handleResetAPI)
			r.Get("/zscores", s.handleZScores)
			r.Get("/correlation", s.handleCorrelation)
		})
	})
	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		render.JSON(w, r, map[string]string{"status": "ready"})
	}
}
