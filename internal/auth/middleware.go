package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/kosha-admin/kosha/internal/shared"
)

// RequireAdmin rejects requests without a signed-in, active admin. Browser
// requests are redirected to the login page; JSON clients get 401.
func RequireAdmin(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || sess.UserID() == 0 {
				deny(w, r)
				return
			}
			user, err := service.ActiveAdmin(r.Context(), sess.UserID())
			if errors.Is(err, ErrUserNotFound) {
				sess.SetUser(0)
				deny(w, r)
				return
			}
			if err != nil {
				logger.Error("load admin", slog.Int64("admin_id", sess.UserID()), slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithAdmin(r.Context(), shared.Admin{ID: user.ID, Email: user.Email, Name: user.Name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authentication required"}`))
		return
	}
	target := "/auth/login"
	if r.Method == http.MethodGet && r.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func wantsJSON(r *http.Request) bool {
	return strings.HasSuffix(r.URL.Path, ".json") || strings.Contains(r.Header.Get("Accept"), "application/json")
}
