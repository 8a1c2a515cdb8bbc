// Package httpapi exposes the services over HTTP with a chi router. Every
// /api route passes the access gate first; /health, /ready and /metrics are
// open.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/equipview/internal/logging"
	"github.com/dmitrijs2005/equipview/internal/server/auth"
	"github.com/dmitrijs2005/equipview/internal/server/metrics"
	"github.com/dmitrijs2005/equipview/internal/server/models"
	"github.com/dmitrijs2005/equipview/internal/server/report"
	"github.com/dmitrijs2005/equipview/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Uploads is implemented by services.UploadService.
type Uploads interface {
	Upload(ctx context.Context, accountID, filename string, data []byte) (*services.UploadResult, error)
	History(ctx context.Context, accountID string) ([]models.UploadMeta, error)
	Detail(ctx context.Context, accountID, id string) (*models.Upload, error)
	Report(ctx context.Context, accountID, id string, f report.Format) (*services.Document, error)
	Source(ctx context.Context, accountID, id string) (*services.Source, error)
}

// Accounts is implemented by services.AccountService.
type Accounts interface {
	Details(ctx context.Context, accountID string) (*models.Account, error)
	UpdateDetails(ctx context.Context, accountID string, u models.ProfileUpdate) (*models.Account, error)
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

// Authorizer is implemented by auth.Gate.
type Authorizer interface {
	Authorize(ctx context.Context, c auth.Credential) (*models.Account, error)
}

// Pinger reports database readiness; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Uploads        Uploads
	Accounts       Accounts
	Gate           Authorizer
	DB             Pinger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         logging.Logger
	MaxUploadSize  int64
	AllowedOrigins []string
}

type Server struct {
	uploads   Uploads
	accounts  Accounts
	gate      Authorizer
	db        Pinger
	metrics   *metrics.Metrics
	logger    logging.Logger
	maxUpload int64
}

const readyTimeout = 2 * time.Second

// NewRouter builds the HTTP handler.
func NewRouter(d Deps) http.Handler {
	s := &Server{
		uploads:   d.Uploads,
		accounts:  d.Accounts,
		gate:      d.Gate,
		db:        d.DB,
		metrics:   d.Metrics,
		logger:    d.Logger,
		maxUpload: d.MaxUploadSize,
	}
	if s.logger == nil {
		s.logger = logging.Nop{}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.RequestID)
	mux.Use(s.accessLog)
	mux.Use(s.instrument)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	mux.Get("/ready", s.wrap(s.handleReady))
	if d.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(s.requireAccount)

		rt.Post("/upload", s.wrap(s.handleUpload))
		rt.Get("/history", s.wrap(s.handleHistory))
		rt.Get("/data/{id}", s.wrap(s.handleData))
		rt.Get("/report/{id}", s.wrap(s.handleReport))
		rt.Get("/source/{id}", s.wrap(s.handleSource))

		rt.Get("/user/details", s.wrap(s.handleUserDetails))
		rt.Put("/user/details", s.wrap(s.handleUpdateUserDetails))
		rt.Post("/user/password", s.wrap(s.handleChangePassword))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap turns a handler returning an error into an http.HandlerFunc.
func (s *Server) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		logging.FromContext(r.Context(), s.logger).Warn(r.Context(), "readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "database unavailable"})
		return nil
	}
	_, _ = io.WriteString(w, "ready")
	return nil
}
