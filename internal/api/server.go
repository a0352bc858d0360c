package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"teko/internal/auth"
	"teko/internal/capture"
	"teko/internal/collection"
	"teko/internal/logging"
	"teko/internal/pipeline"
	"teko/internal/services/discogs"
)

// RecordStore is the collection surface the API needs.
type RecordStore interface {
	Create(ctx context.Context, ownerID string, draft collection.Draft) (*collection.Record, error)
	Get(ctx context.Context, ownerID, id string) (*collection.Record, error)
	List(ctx context.Context, ownerID string, filter collection.Filter) ([]*collection.Record, error)
	Update(ctx context.Context, ownerID, id string, draft collection.Draft) (*collection.Record, error)
	Delete(ctx context.Context, ownerID, id string) error
	Stats(ctx context.Context, ownerID string) (*collection.Stats, error)
	Ping(ctx context.Context) error
}

var _ RecordStore = (*collection.Store)(nil)

// Options configures a Server.
type Options struct {
	Store    RecordStore
	Catalog  discogs.Catalog
	Registry *pipeline.Registry
	Auth     auth.Provider
	Logger   *slog.Logger
	// MaxImageBytes caps capture uploads. Zero uses capture.DefaultMaxBytes.
	MaxImageBytes int64
	Version       string
}

// Server routes API requests.
type Server struct {
	store         RecordStore
	catalog       discogs.Catalog
	registry      *pipeline.Registry
	auth          auth.Provider
	logger        *slog.Logger
	maxImageBytes int64
	version       string

	router chi.Router
}

// New validates opts and builds the router.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("api: record store is required")
	}
	if opts.Auth == nil {
		return nil, errors.New("api: auth provider is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("api: pipeline registry is required")
	}
	maxBytes := opts.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = capture.DefaultMaxBytes
	}
	s := &Server{
		store:         opts.Store,
		catalog:       opts.Catalog,
		registry:      opts.Registry,
		auth:          opts.Auth,
		logger:        logging.NewComponentLogger(opts.Logger, "api"),
		maxImageBytes: maxBytes,
		version:       opts.Version,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Route("/api/pipelines", func(r chi.Router) {
			r.Post("/", s.handleOpenPipeline)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPipeline)
				r.Delete("/", s.handleDismissPipeline)
				r.Post("/capture", s.handleCapture)
				r.Post("/retry", s.handleRetry)
				r.Post("/manual", s.handleEnterManual)
				r.Post("/manual/submit", s.handleSubmitManual)
			})
		})

		r.Route("/api/records", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Get("/{id}", s.handleGetRecord)
			r.Put("/{id}", s.handleUpdateRecord)
			r.Delete("/{id}", s.handleDeleteRecord)
		})
		r.Get("/api/stats", s.handleStats)

		r.Route("/api/discogs", func(r chi.Router) {
			r.Get("/search", s.handleSearch)
			r.Get("/masters/{id}", s.handleMaster)
			r.Get("/masters/{id}/versions", s.handleVersions)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Database: "ok",
		OpenRuns: s.registry.Len(),
	}
	status := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		logging.WarnWithContext(s.logger, "database ping failed", "health_check_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the data directory and database file permissions"),
			logging.String(logging.FieldImpact, "collection reads and writes will fail"),
		)
		resp.Status = "degraded"
		resp.Database = err.Error()
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}
