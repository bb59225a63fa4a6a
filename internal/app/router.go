package app

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kosha-admin/kosha/internal/auth"
	"github.com/kosha-admin/kosha/internal/dblogs"
	"github.com/kosha-admin/kosha/internal/journal"
	"github.com/kosha-admin/kosha/internal/observability"
	"github.com/kosha-admin/kosha/internal/platform/httpx"
	"github.com/kosha-admin/kosha/internal/shared"
	"github.com/kosha-admin/kosha/internal/view"
	"github.com/kosha-admin/kosha/internal/words"
	"github.com/kosha-admin/kosha/jobs"
	"github.com/kosha-admin/kosha/web"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthService    *auth.Service
	AuthHandler    *auth.Handler
	WordsHandler   *words.Handler
	DBLogsHandler  *dblogs.Handler
	JournalHandler *journal.Handler
	JobHandler     *jobs.Handler
	Metrics        *observability.Metrics
	HealthChecks   map[string]HealthCheck
}

// NewRouter constructs the chi.Router with the dashboard defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()
	mwConfig := MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}

	for _, mw := range MiddlewareStack(mwConfig) {
		r.Use(mw)
	}
	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", healthHandler(params.HealthChecks, params.Logger))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		for _, mw := range SessionStack(mwConfig) {
			r.Use(mw)
		}
		r.Route("/auth", params.AuthHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(params.AuthService, params.Logger))

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				data := view.NewTemplateData(r, params.CSRFManager, "Dashboard", map[string]any{
					"AppEnv": params.Config.AppEnv,
				})
				if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
					params.Logger.Error("render home", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			})
			if params.WordsHandler != nil {
				r.Route("/words", params.WordsHandler.MountRoutes)
			}
			r.Route("/reports", func(r chi.Router) {
				if params.DBLogsHandler != nil {
					params.DBLogsHandler.MountRoutes(r)
				}
				if params.JournalHandler != nil {
					r.Route("/admin-actions", params.JournalHandler.MountRoutes)
				}
			})
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler runs every check and answers 503 when any of them fails.
func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		report := healthReport{Status: "ok"}
		if len(names) > 0 {
			report.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				logger.Warn("health check failed", slog.String("check", name), slog.Any("error", err))
				report.Checks[name] = err.Error()
				report.Status = "degraded"
				continue
			}
			report.Checks[name] = "ok"
		}
		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httpx.JSON(w, status, report)
	}
}

// staticCacheHandler lets browsers keep embedded assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
