package journal

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kosha-admin/kosha/internal/export"
	"github.com/kosha-admin/kosha/internal/shared"
	"github.com/kosha-admin/kosha/internal/tableview"
	"github.com/kosha-admin/kosha/internal/view"
)

// Lister is the read side the handler depends on.
type Lister interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Handler serves the admin action report.
type Handler struct {
	logger    *slog.Logger
	service   Lister
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service Lister, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers the report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.index)
	r.Get("/export.csv", h.exportCSV)
}

type indexPage struct {
	Table     tableview.Page
	LoadError string
}

func (h *Handler) engine(r *http.Request) (*tableview.Engine[Entry], error) {
	entries, err := h.service.Recent(r.Context(), limitOf(r.URL.Query()))
	if err != nil {
		return nil, err
	}
	e := tableview.New(Columns(), entries, tableview.WithRowKey(func(e Entry) string { return e.ID.String() }))
	e.Apply(tableview.ParseState(r.URL.Query()))
	return e, nil
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	e, err := h.engine(r)
	page := indexPage{}
	status := http.StatusOK
	if err != nil {
		h.logger.Error("load admin actions", slog.Any("error", err))
		page.LoadError = "the journal is unavailable"
		page.Table = tableview.Page{Path: r.URL.Path}
		status = http.StatusInternalServerError
	} else {
		page.Table = tableview.NewPage(e, r.URL.Path, nil, nil)
	}
	data := view.NewTemplateData(r, h.csrf, "Admin Actions", page)
	if err := h.templates.RenderStatus(w, status, "pages/admin_actions.html", data); err != nil {
		h.logger.Error("render admin actions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	e, err := h.engine(r)
	if err != nil {
		h.logger.Error("export admin actions", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, e.Records()); err != nil {
		h.logger.Error("encode admin actions csv", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="admin-actions.csv"`)
	_, _ = buf.WriteTo(w)
}

func limitOf(q url.Values) int {
	n, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
