package dblogs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/kosha-admin/kosha/internal/dictapi"
	"github.com/kosha-admin/kosha/internal/export"
	"github.com/kosha-admin/kosha/internal/journal"
	"github.com/kosha-admin/kosha/internal/observability"
	"github.com/kosha-admin/kosha/internal/platform/httpx"
	"github.com/kosha-admin/kosha/internal/shared"
	"github.com/kosha-admin/kosha/internal/tableview"
	"github.com/kosha-admin/kosha/internal/view"
	"github.com/kosha-admin/kosha/report"
)

const (
	basePath   = "/reports/db-operations"
	rateLimit  = 10
	rateWindow = time.Minute
)

// PDFRenderer turns an HTML document into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html []byte, opts report.PageOptions) ([]byte, error)
}

// Enqueuer schedules a background reload of a month.
type Enqueuer interface {
	EnqueueDBLogsWarm(ctx context.Context, month dictapi.Month) error
}

// Journal records completed mutations.
type Journal interface {
	Record(ctx context.Context, entry journal.Entry)
}

// Deps are the optional collaborators of the report handler.
type Deps struct {
	PDF     PDFRenderer
	Queue   Enqueuer
	Journal Journal
	Metrics *observability.Metrics
}

// Handler serves the DB operations report.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	deps      Deps
	now       func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, deps Deps) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		deps:      deps,
		now:       time.Now,
	}
}

// MountRoutes registers the report under /reports.
func (h *Handler) MountRoutes(r chi.Router) {
	limiter := httprate.Limit(rateLimit, rateWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
	r.Get("/db-operations", h.index)
	r.Get("/db-operations.json", h.indexJSON)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/db-operations/export.{format}", h.export)
		gr.Post("/db-operations/refresh", h.refresh)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil && sess.UserID() != 0 {
		return fmt.Sprintf("admin:%d", sess.UserID()), nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}

type indexPage struct {
	Month     dictapi.Month
	Months    []dictapi.Month
	Table     tableview.Page
	LoadError string
}

type errorPage struct {
	Status  int
	Message string
}

type jsonView struct {
	Month string         `json:"month"`
	View  tableview.View `json:"view"`
}

type pdfDocument struct {
	Title     string
	Generated time.Time
	Header    []string
	Rows      [][]string
	Filtered  bool
}

// month resolves the month parameter, defaulting to the current month.
func (h *Handler) month(r *http.Request) (dictapi.Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("month"))
	if raw == "" {
		return dictapi.MonthOf(h.now()), nil
	}
	return dictapi.ParseMonth(raw)
}

func monthQuery(month dictapi.Month) url.Values {
	return url.Values{"month": {string(month)}}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	month, err := h.month(r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Unknown month.")
		return
	}
	page := indexPage{Month: month, Months: dictapi.Months()}
	status := http.StatusOK
	logs, err := h.service.Logs(r.Context(), month)
	if err != nil {
		h.logger.Error("load db logs", slog.String("month", string(month)), slog.Any("error", err))
		page.LoadError = loadErrorMessage(err)
		page.Table = tableview.Page{Path: r.URL.Path, Extra: monthQuery(month)}
		status = http.StatusBadGateway
	} else {
		e := newEngine(logs, tableview.ParseState(r.URL.Query()))
		page.Table = tableview.NewPage(e, r.URL.Path, monthQuery(month), nil)
	}
	data := view.NewTemplateData(r, h.csrf, "DB Operations", page)
	if err := h.templates.RenderStatus(w, status, "pages/dblogs.html", data); err != nil {
		h.logger.Error("render db logs", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) indexJSON(w http.ResponseWriter, r *http.Request) {
	month, err := h.month(r)
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	logs, err := h.service.Logs(r.Context(), month)
	if err != nil {
		h.logger.Error("load db logs", slog.String("month", string(month)), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, http.StatusText(http.StatusBadGateway), loadErrorMessage(err))
		return
	}
	e := newEngine(logs, tableview.ParseState(r.URL.Query()))
	httpx.JSON(w, http.StatusOK, jsonView{Month: string(month), View: e.View()})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format != "csv" && format != "xlsx" && format != "pdf" {
		http.NotFound(w, r)
		return
	}
	month, err := h.month(r)
	if err != nil {
		http.Error(w, "unknown month", http.StatusBadRequest)
		return
	}
	logs, err := h.service.Logs(r.Context(), month)
	if err != nil {
		h.logger.Error("export db logs", slog.String("month", string(month)), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	state := tableview.ParseState(r.URL.Query())
	records := newEngine(logs, state).Records()
	filename := "db-operations-" + string(month) + "." + format

	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = export.WriteCSV(&buf, records)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, "DB Operations "+month.Label(), records)
	case "pdf":
		contentType = "application/pdf"
		var pdf []byte
		pdf, err = h.renderPDF(r.Context(), month, records, state)
		buf.Write(pdf)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if format == "pdf" {
			status = http.StatusBadGateway
			if errors.Is(err, report.ErrNotConfigured) {
				status = http.StatusServiceUnavailable
			}
		}
		h.logger.Error("export db logs", slog.String("format", format), slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
		return
	}
	h.deps.Metrics.ObserveExport(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderPDF(ctx context.Context, month dictapi.Month, records [][]string, state tableview.State) ([]byte, error) {
	if h.deps.PDF == nil {
		return nil, report.ErrNotConfigured
	}
	doc := pdfDocument{
		Title:     "DB Operations · " + month.Label(),
		Generated: h.now(),
		Filtered:  state.GlobalFilter != "" || len(state.ColumnFilters) > 0,
	}
	if len(records) > 0 {
		doc.Header, doc.Rows = records[0], records[1:]
	}
	var html bytes.Buffer
	if err := h.templates.Execute(&html, "pages/dblogs_pdf.html", doc); err != nil {
		return nil, fmt.Errorf("dblogs: pdf template: %w", err)
	}
	return h.deps.PDF.RenderHTML(ctx, html.Bytes(), report.PageOptions{Landscape: true})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	month, err := h.month(r)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Unknown month.")
		return
	}
	sess := shared.SessionFromContext(r.Context())
	target := basePath + "?" + monthQuery(month).Encode()

	if err := h.service.Invalidate(r.Context(), month); err != nil {
		h.logger.Error("invalidate db logs", slog.String("month", string(month)), slog.Any("error", err))
		if sess != nil {
			sess.AddFlash(shared.FlashError, "Error: could not refresh the "+month.Label()+" log.")
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	if h.deps.Queue != nil {
		if err := h.deps.Queue.EnqueueDBLogsWarm(r.Context(), month); err != nil {
			h.logger.Warn("enqueue db logs warm-up", slog.String("month", string(month)), slog.Any("error", err))
		}
	}
	if h.deps.Journal != nil {
		h.deps.Journal.Record(r.Context(), journal.Entry{
			Action:     journal.ActionDBLogsRefresh,
			Resource:   journal.ResourceDBLogs,
			ResourceID: string(month),
		})
	}
	if sess != nil {
		sess.AddFlash(shared.FlashSuccess, "The "+month.Label()+" log will be reloaded.")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := view.NewTemplateData(r, h.csrf, http.StatusText(status), errorPage{Status: status, Message: message})
	if err := h.templates.RenderStatus(w, status, "pages/error.html", data); err != nil {
		h.logger.Error("render error page", slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
	}
}

func loadErrorMessage(err error) string {
	var apiErr *dictapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, httpx.ErrUpstream) {
		return httpx.ErrUpstream.Error()
	}
	return "unexpected error"
}
