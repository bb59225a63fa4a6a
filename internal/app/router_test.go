package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/kosha-admin/kosha/internal/auth"
	"github.com/kosha-admin/kosha/internal/dblogs"
	"github.com/kosha-admin/kosha/internal/journal"
	"github.com/kosha-admin/kosha/internal/observability"
	"github.com/kosha-admin/kosha/internal/shared"
	"github.com/kosha-admin/kosha/internal/view"
	"github.com/kosha-admin/kosha/internal/words"
	"github.com/kosha-admin/kosha/jobs"
)

type noAdmins struct{}

func (noAdmins) FindByEmail(context.Context, string) (*auth.AdminUser, error) {
	return nil, auth.ErrUserNotFound
}

func (noAdmins) FindByID(context.Context, int64) (*auth.AdminUser, error) {
	return nil, auth.ErrUserNotFound
}

func (noAdmins) TouchLogin(context.Context, int64, time.Time) error { return nil }

func newTestRouter(t *testing.T, mr *miniredis.Miniredis, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	templates, err := view.NewEngine()
	require.NoError(t, err)
	sessions := shared.NewSessionManager(client, shared.SessionOptions{CookieName: "kosha_test", TTL: time.Hour})
	csrf := shared.NewCSRFManager("0123456789abcdef")
	authService := auth.NewService(noAdmins{})

	return NewRouter(RouterParams{
		Logger:         slog.New(slog.DiscardHandler),
		Config:         &Config{AppEnv: "test", RateLimitPerMin: 1000},
		Templates:      templates,
		SessionManager: sessions,
		CSRFManager:    csrf,
		AuthService:    authService,
		AuthHandler:    auth.NewHandler(nil, authService, templates, sessions, csrf),
		WordsHandler:   words.NewHandler(nil, nil, templates, csrf),
		DBLogsHandler:  dblogs.NewHandler(nil, nil, templates, csrf, dblogs.Deps{}),
		JournalHandler: journal.NewHandler(nil, nil, templates, csrf),
		JobHandler:     jobs.NewHandler(nil, nil),
		Metrics:        observability.NewMetrics(),
		HealthChecks:   checks,
	})
}

type RouterSuite struct {
	suite.Suite
	router      http.Handler
	redis       *miniredis.Miniredis
	gotenberg   error
	checksCalls int
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.gotenberg = nil
	s.checksCalls = 0
	s.redis = miniredis.RunT(s.T())
	s.router = newTestRouter(s.T(), s.redis, map[string]HealthCheck{
		"postgres": func(context.Context) error {
			s.checksCalls++
			return nil
		},
		"gotenberg": func(context.Context) error { return s.gotenberg },
	})
}

func (s *RouterSuite) serve(method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	res := httptest.NewRecorder()
	s.router.ServeHTTP(res, req)
	return res
}

func (s *RouterSuite) TestHealthzReportsChecks() {
	res := s.serve(http.MethodGet, "/healthz", "")

	s.Require().Equal(http.StatusOK, res.Code)
	s.JSONEq(`{"status":"ok","checks":{"gotenberg":"ok","postgres":"ok"}}`, res.Body.String())
	s.Equal(1, s.checksCalls)
}

func (s *RouterSuite) TestHealthzDegraded() {
	s.gotenberg = errors.New("connection refused")
	res := s.serve(http.MethodGet, "/healthz", "")

	s.Require().Equal(http.StatusServiceUnavailable, res.Code)
	s.Contains(res.Body.String(), `"status":"degraded"`)
	s.Contains(res.Body.String(), "connection refused")
}

func (s *RouterSuite) TestDashboardRequiresAdmin() {
	for _, path := range []string{"/", "/words", "/reports/db-operations", "/reports/admin-actions", "/jobs/health"} {
		res := s.serve(http.MethodGet, path, "")
		s.Equal(http.StatusSeeOther, res.Code, path)
		s.True(strings.HasPrefix(res.Header().Get("Location"), "/auth/login"), path)
	}
}

func (s *RouterSuite) TestLoginPageSetsSessionCookie() {
	res := s.serve(http.MethodGet, "/auth/login", "")

	s.Require().Equal(http.StatusOK, res.Code)
	s.Equal("DENY", res.Header().Get("X-Frame-Options"))
	var found bool
	for _, c := range res.Result().Cookies() {
		if c.Name == "kosha_test" {
			found = true
		}
	}
	s.True(found, "session cookie not set")
}

func (s *RouterSuite) TestUnsafeRequestWithoutCSRFTokenIsRejected() {
	res := s.serve(http.MethodPost, "/auth/login", "email=a%40b.c&password=x")
	s.Equal(http.StatusForbidden, res.Code)
}

func (s *RouterSuite) TestStaticAssetsAreCached() {
	res := s.serve(http.MethodGet, "/static/css/app.css", "")

	s.Require().Equal(http.StatusOK, res.Code)
	s.Equal("public, max-age=3600", res.Header().Get("Cache-Control"))
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.serve(http.MethodGet, "/healthz", "")
	res := s.serve(http.MethodGet, "/metrics", "")

	s.Require().Equal(http.StatusOK, res.Code)
	s.Contains(res.Body.String(), `kosha_http_requests_total{code="200",route="/healthz"}`)
}

func (s *RouterSuite) sessionKeys() []string {
	var out []string
	for _, key := range s.redis.Keys() {
		if strings.HasPrefix(key, "kosha:session:") {
			out = append(out, key)
		}
	}
	return out
}

func (s *RouterSuite) TestProbesAndAssetsDoNotCreateSessions() {
	for _, path := range []string{"/healthz", "/metrics", "/static/css/app.css"} {
		res := s.serve(http.MethodGet, path, "")
		s.Equal(http.StatusOK, res.Code, path)
		s.Empty(res.Result().Cookies(), path)
	}
	s.Empty(s.sessionKeys())

	s.serve(http.MethodGet, "/auth/login", "")
	s.Len(s.sessionKeys(), 1)
}
