package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kosha-admin/kosha/internal/app"
	"github.com/kosha-admin/kosha/internal/auth"
	"github.com/kosha-admin/kosha/internal/dblogs"
	"github.com/kosha-admin/kosha/internal/dictapi"
	"github.com/kosha-admin/kosha/internal/journal"
	"github.com/kosha-admin/kosha/internal/observability"
	"github.com/kosha-admin/kosha/internal/platform/cache"
	"github.com/kosha-admin/kosha/internal/platform/db"
	"github.com/kosha-admin/kosha/internal/querycache"
	"github.com/kosha-admin/kosha/internal/shared"
	"github.com/kosha-admin/kosha/internal/view"
	"github.com/kosha-admin/kosha/internal/words"
	"github.com/kosha-admin/kosha/jobs"
	"github.com/kosha-admin/kosha/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()
	if err := db.Migrate(ctx, dbpool); err != nil {
		logger.Error("migrate", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	redisClient, err := cache.New(ctx, redisOpts)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	cacheMetrics, err := querycache.NewMetrics(metrics.Registerer())
	if err != nil {
		logger.Error("register cache metrics", slog.Any("error", err))
		os.Exit(1)
	}
	queryCache := querycache.New(redisClient, cfg.CacheTTL, querycache.WithLogger(logger), querycache.WithMetrics(cacheMetrics))

	dictClient := dictapi.NewClient(cfg.DictAPIURL, cfg.DictAPIToken, cfg.DictAPITimeout,
		dictapi.WithHTTPClient(&http.Client{
			Timeout:   cfg.DictAPITimeout,
			Transport: metrics.InstrumentTransport(nil),
		}))

	sessionManager := shared.NewSessionManager(redisClient, shared.SessionOptions{
		CookieName: "kosha_session",
		TTL:        cfg.SessionTTL,
		Secure:     cfg.IsProduction(),
	})
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	journalService := journal.NewService(journal.NewStore(dbpool), logger)
	journalHandler := journal.NewHandler(logger, journalService, templates, csrfManager)

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	wordsService := words.NewService(dictClient, queryCache, journalService, logger)
	wordsHandler := words.NewHandler(logger, wordsService, templates, csrfManager)

	asynqOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(asynqOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynqOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	reportClient := report.NewClient(cfg.GotenbergURL)
	dblogsService := dblogs.NewService(dictClient, queryCache)
	dblogsHandler := dblogs.NewHandler(logger, dblogsService, templates, csrfManager, dblogs.Deps{
		PDF:     reportClient,
		Queue:   jobClient,
		Journal: journalService,
		Metrics: metrics,
	})

	healthChecks := map[string]app.HealthCheck{
		"postgres": dbpool.Ping,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if cfg.GotenbergURL != "" {
		healthChecks["gotenberg"] = reportClient.Ping
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthService:    authService,
		AuthHandler:    authHandler,
		WordsHandler:   wordsHandler,
		DBLogsHandler:  dblogsHandler,
		JournalHandler: journalHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
		HealthChecks:   healthChecks,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
