package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DukeRupert/tradedesk/internal"
	"github.com/DukeRupert/tradedesk/internal/apiclient"
	"github.com/DukeRupert/tradedesk/internal/controller"
	"github.com/DukeRupert/tradedesk/internal/csrf"
	"github.com/DukeRupert/tradedesk/internal/handler"
	"github.com/DukeRupert/tradedesk/internal/metrics"
	"github.com/DukeRupert/tradedesk/internal/middleware"
	"github.com/DukeRupert/tradedesk/internal/modal"
	"github.com/DukeRupert/tradedesk/internal/schema"
	"github.com/DukeRupert/tradedesk/internal/session"
	"github.com/DukeRupert/tradedesk/internal/storage"
	"github.com/DukeRupert/tradedesk/internal/worker"
	"github.com/DukeRupert/tradedesk/web"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate -path ../..

// expirer is a session store that must drop expired entries itself.
type expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	isSecure := cfg.IsSecure()

	// ==========================================================================
	// Session state
	// ==========================================================================

	store, health, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// ==========================================================================
	// Backend and presentation state
	// ==========================================================================

	api, err := apiclient.New(apiclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, logger)
	if err != nil {
		return fmt.Errorf("backend client initialization failed: %w", err)
	}
	messages := apiclient.NewMessages(cfg.Language)
	schemas := schema.NewCache(api)
	lists := controller.New(api, schemas, store, logger)
	guards := modal.NewGuardRegistry()

	timings := modal.Timings{OpenDelay: cfg.ModalOpenDelay, CloseDelay: cfg.ModalCloseDelay}
	if err := timings.Validate(); err != nil {
		return fmt.Errorf("modal timings: %w", err)
	}

	archiveStore, err := storage.New(storage.Config{
		Provider: cfg.ExportArchive,
		Local:    storage.LocalConfig{BasePath: cfg.LocalStoragePath},
		R2: storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("export archive initialization failed: %w", err)
	}
	archiver := storage.NewArchiver(archiveStore, logger)
	logger.Info("Export archive configured", "provider", cfg.ExportArchive, "enabled", archiver.Enabled())

	// ==========================================================================
	// Middleware and handlers
	// ==========================================================================

	authMw := middleware.NewAuthMiddleware(store, logger, isSecure)
	loginLimiter := middleware.NewLoginRateLimiter(logger)
	defer loginLimiter.Stop()
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	if !metricsAuth.Enabled() {
		logger.Warn("Metrics endpoint is not protected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	authHandler := handler.NewAuthHandler(handler.AuthConfig{
		Auth:         api,
		Store:        store,
		Forget:       []handler.Forgetter{schemas, lists, guards},
		Limiter:      loginLimiter,
		Messages:     messages,
		Logger:       logger,
		IsSecure:     isSecure,
		CookieMaxAge: cfg.AuthCookieMaxAge,
	})

	pageConfig := handler.PageConfig{
		Backend:        api,
		Lists:          lists,
		Guards:         guards,
		Messages:       messages,
		Logger:         logger,
		Timings:        timings,
		PageSize:       cfg.DefaultPageSize,
		SearchDebounce: cfg.SearchDebounce,
		SelectDebounce: cfg.SelectDebounce,
		IsSecure:       isSecure,
	}
	if archiver.Enabled() {
		pageConfig.Archiver = archiver
	}
	pageHandler := handler.NewPageHandler(pageConfig)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", web.Static()))

	// Health check and metrics
	mux.Handle("GET /health", handler.Health(health))
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Auth routes (public - no auth required)
	authHandler.RegisterRoutes(mux, loginLimiter.Limit)

	// List pages (require a session)
	pageHandler.RegisterRoutes(mux, authMw.RequireSession)

	csrfFailure := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("CSRF validation failed", "path", r.URL.Path, "method", r.Method)
		handler.ForbiddenResponse(w, r, logger)
	})

	app := middleware.Stack(
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		middleware.NewSecurityHeadersMiddleware(isSecure).Handler,
		metrics.Middleware,
		csrf.Protect(isSecure, csrfFailure),
		authMw.WithSession,
	)(mux)

	// ==========================================================================
	// Maintenance worker
	// ==========================================================================

	var maint *worker.Worker
	if cfg.WorkerEnabled {
		wcfg := worker.DefaultConfig()
		wcfg.Interval = cfg.WorkerInterval
		maint, err = worker.New(wcfg, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		if e, ok := store.(expirer); ok {
			maint.Register(worker.Func("session-state", e.DeleteExpired))
		}
		maint.Register(worker.Counter("schema-cache", func() int { return schemas.Prune(wcfg.SchemaIdle) }))
		maint.Register(worker.Counter("edit-guards", guards.Prune))
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if maint != nil {
		maint.Start(workerCtx)
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "backend", cfg.APIBaseURL, "session_store", cfg.SessionStore)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	if maint != nil {
		maint.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

// openStore connects the configured session store. The returned checks feed
// /health and close releases the connection.
func openStore(ctx context.Context, cfg *internal.Config, logger *slog.Logger) (session.Store, map[string]handler.HealthChecker, func(), error) {
	switch cfg.SessionStore {
	case "redis":
		client, err := session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		logger.Info("Session store ready", "store", "redis", "addr", cfg.RedisAddr)
		store := session.NewRedisStore(client, cfg.SessionTTL)
		return store, map[string]handler.HealthChecker{"redis": store}, func() { _ = client.Close() }, nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.DatabaseUrl)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("database ping failed: %w", err)
		}
		if err := internal.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Session store ready", "store", "postgres")
		return session.NewPostgresStore(db, cfg.SessionTTL), map[string]handler.HealthChecker{"database": dbChecker{db}}, func() { db.Close() }, nil

	default:
		logger.Info("Session store ready", "store", "memory")
		return session.NewMemoryStore(cfg.SessionTTL), nil, func() {}, nil
	}
}

type dbChecker struct{ db *sql.DB }

func (c dbChecker) Healthy(ctx context.Context) bool {
	return c.db.PingContext(ctx) == nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
