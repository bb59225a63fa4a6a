package words

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kosha-admin/kosha/internal/dictapi"
	"github.com/kosha-admin/kosha/internal/platform/httpx"
	"github.com/kosha-admin/kosha/internal/shared"
	"github.com/kosha-admin/kosha/internal/tableview"
	"github.com/kosha-admin/kosha/internal/view"
)

// Handler serves the word and meaning screens.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
	}
}

// MountRoutes registers word routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.index)
	r.Get("/new", h.newWord)
	r.Post("/", h.create)
	r.Get("/{word}", h.show)
	r.Get("/{word}/edit", h.editWord)
	r.Post("/{word}", h.update)
	r.Post("/{word}/delete", h.delete)
	r.Post("/{word}/meanings", h.addMeaning)
	r.Post("/{word}/meanings/delete", h.deleteAllMeanings)
	r.Get("/{word}/meanings/{id}", h.showMeaning)
	r.Post("/{word}/meanings/{id}/delete", h.deleteMeaning)
}

type wordForm struct {
	SanskritWord           string `validate:"required,max=128"`
	EnglishTransliteration string `validate:"required,max=256"`
}

type meaningForm struct {
	Meaning string `validate:"required,max=2000"`
}

type indexPage struct {
	Table     tableview.Page
	LoadError string
}

type formPage struct {
	Action   string
	Editing  bool
	Original string
	Form     wordForm
	Errors   map[string]string
	Cancel   string
}

type showPage struct {
	Word          dictapi.Word
	Meanings      []dictapi.Meaning
	MeaningsError string
	MeaningText   string
	Errors        map[string]string
}

type meaningPage struct {
	Word    string
	Meaning dictapi.Meaning
}

type errorPage struct {
	Status  int
	Message string
}

// Columns are the word list columns.
func Columns() []tableview.Column[dictapi.Word] {
	return []tableview.Column[dictapi.Word]{
		{ID: "sanskrit_word", Header: "Sanskrit Word", Sortable: true, Accessor: func(w dictapi.Word) any { return w.SanskritWord }},
		{ID: "english_transliteration", Header: "Transliteration", Sortable: true, Accessor: func(w dictapi.Word) any { return w.EnglishTransliteration }},
		{ID: "meanings", Header: "Meanings", Kind: tableview.KindNumber, Sortable: true, Accessor: func(w dictapi.Word) any { return len(w.MeaningIDs) }},
	}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	page := indexPage{}
	status := http.StatusOK
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list words", slog.Any("error", err))
		page.LoadError = errorMessage(err)
		page.Table = tableview.Page{Path: r.URL.Path}
		status = httpx.StatusOf(err)
	} else {
		e := tableview.New(Columns(), list, tableview.WithRowKey(func(w dictapi.Word) string { return w.SanskritWord }))
		e.Apply(tableview.ParseState(r.URL.Query()))
		page.Table = tableview.NewPage(e, r.URL.Path, nil, nil)
	}
	h.render(w, r, status, "Words", "pages/words_index.html", page)
}

func (h *Handler) newWord(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Add word", "pages/word_form.html", formPage{
		Action: "/words",
		Errors: map[string]string{},
		Cancel: "/words",
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parseWordForm(w, r)
	if !ok {
		return
	}
	page := formPage{Action: "/words", Form: form, Cancel: "/words"}
	if page.Errors = h.validate(form); len(page.Errors) > 0 {
		h.render(w, r, http.StatusBadRequest, "Add word", "pages/word_form.html", page)
		return
	}
	msg, err := h.service.Create(r.Context(), dictapi.WordInput(form))
	if err != nil {
		h.fail(w, r, "create word", err, "/words")
		return
	}
	h.succeed(w, r, msg, "Word created.", wordPath(form.SanskritWord))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	word, err := h.service.Get(r.Context(), name)
	if err != nil {
		h.renderFailure(w, r, "get word", err)
		return
	}
	page := showPage{Word: word, Errors: map[string]string{}}
	h.loadMeanings(r, &page)
	h.render(w, r, http.StatusOK, word.SanskritWord, "pages/word_show.html", page)
}

func (h *Handler) editWord(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	word, err := h.service.Get(r.Context(), name)
	if err != nil {
		h.renderFailure(w, r, "get word", err)
		return
	}
	h.render(w, r, http.StatusOK, "Edit word", "pages/word_form.html", formPage{
		Action:   wordPath(name),
		Editing:  true,
		Original: name,
		Form:     wordForm{SanskritWord: word.SanskritWord, EnglishTransliteration: word.EnglishTransliteration},
		Errors:   map[string]string{},
		Cancel:   wordPath(name),
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	form, ok := h.parseWordForm(w, r)
	if !ok {
		return
	}
	page := formPage{Action: wordPath(name), Editing: true, Original: name, Form: form, Cancel: wordPath(name)}
	if page.Errors = h.validate(form); len(page.Errors) > 0 {
		h.render(w, r, http.StatusBadRequest, "Edit word", "pages/word_form.html", page)
		return
	}
	msg, err := h.service.Edit(r.Context(), name, dictapi.WordInput(form))
	if err != nil {
		h.fail(w, r, "edit word", err, wordPath(name))
		return
	}
	h.succeed(w, r, msg, "Word updated.", wordPath(form.SanskritWord))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	msg, err := h.service.Delete(r.Context(), name)
	if err != nil {
		h.fail(w, r, "delete word", err, wordPath(name))
		return
	}
	h.succeed(w, r, msg, "Word deleted.", "/words")
}

func (h *Handler) addMeaning(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := meaningForm{Meaning: strings.TrimSpace(r.PostFormValue("meaning"))}
	if errs := h.validate(form); len(errs) > 0 {
		word, err := h.service.Get(r.Context(), name)
		if err != nil {
			h.renderFailure(w, r, "get word", err)
			return
		}
		page := showPage{Word: word, MeaningText: form.Meaning, Errors: errs}
		h.loadMeanings(r, &page)
		h.render(w, r, http.StatusBadRequest, word.SanskritWord, "pages/word_show.html", page)
		return
	}
	msg, err := h.service.AddMeaning(r.Context(), name, form.Meaning)
	if err != nil {
		h.fail(w, r, "add meaning", err, wordPath(name))
		return
	}
	h.succeed(w, r, msg, "Meaning added.", wordPath(name))
}

func (h *Handler) showMeaning(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	id, ok := meaningParam(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Meaning not found.")
		return
	}
	meaning, err := h.service.Meaning(r.Context(), name, id)
	if err != nil {
		h.renderFailure(w, r, "get meaning", err)
		return
	}
	h.render(w, r, http.StatusOK, name, "pages/meaning_show.html", meaningPage{Word: name, Meaning: meaning})
}

func (h *Handler) deleteMeaning(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	id, ok := meaningParam(r)
	if !ok {
		h.renderError(w, r, http.StatusNotFound, "Meaning not found.")
		return
	}
	msg, err := h.service.DeleteMeaning(r.Context(), name, id)
	if err != nil {
		h.fail(w, r, "delete meaning", err, wordPath(name))
		return
	}
	h.succeed(w, r, msg, "Meaning deleted.", wordPath(name))
}

func (h *Handler) deleteAllMeanings(w http.ResponseWriter, r *http.Request) {
	name := wordParam(r)
	msg, err := h.service.DeleteAllMeanings(r.Context(), name)
	if err != nil {
		h.fail(w, r, "delete all meanings", err, wordPath(name))
		return
	}
	h.succeed(w, r, msg, "All meanings deleted.", wordPath(name))
}

func (h *Handler) loadMeanings(r *http.Request, page *showPage) {
	meanings, err := h.service.Meanings(r.Context(), page.Word.SanskritWord)
	if err != nil && !errors.Is(err, httpx.ErrNotFound) {
		h.logger.Error("get meanings", slog.String("word", page.Word.SanskritWord), slog.Any("error", err))
		page.MeaningsError = errorMessage(err)
		return
	}
	page.Meanings = meanings
}

func (h *Handler) parseWordForm(w http.ResponseWriter, r *http.Request) (wordForm, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return wordForm{}, false
	}
	return wordForm{
		SanskritWord:           strings.TrimSpace(r.PostFormValue("sanskrit_word")),
		EnglishTransliteration: strings.TrimSpace(r.PostFormValue("english_transliteration")),
	}, true
}

func (h *Handler) validate(form any) map[string]string {
	errs := map[string]string{}
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs[fe.Field()] = fieldMessage(fe)
			}
		}
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	default:
		return fe.Error()
	}
}

// succeed flashes the backend acknowledgement and redirects.
func (h *Handler) succeed(w http.ResponseWriter, r *http.Request, msg dictapi.Message, fallback, target string) {
	text := msg.Message
	if text == "" {
		text = fallback
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashSuccess, text)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fail flashes a backend error and redirects.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, target string) {
	h.logger.Warn(op, slog.Any("error", err))
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashError, "Error: "+errorMessage(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := httpx.StatusOf(err)
	if status == http.StatusNotFound {
		h.renderError(w, r, status, "Not found.")
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	h.renderError(w, r, status, errorMessage(err))
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, http.StatusText(status), "pages/error.html", errorPage{Status: status, Message: message})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title, name string, data any) {
	td := view.NewTemplateData(r, h.csrf, title, data)
	if err := h.templates.RenderStatus(w, status, name, td); err != nil {
		h.logger.Error("render", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// errorMessage is the user-facing text of a backend failure.
func errorMessage(err error) string {
	var apiErr *dictapi.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, httpx.ErrUpstream):
		return httpx.ErrUpstream.Error()
	default:
		return "unexpected error"
	}
}

func wordParam(r *http.Request) string {
	raw := chi.URLParam(r, "word")
	if word, err := url.PathUnescape(raw); err == nil {
		return word
	}
	return raw
}

func meaningParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func wordPath(word string) string {
	return "/words/" + url.PathEscape(word)
}
