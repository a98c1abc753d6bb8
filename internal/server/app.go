// Package server assembles the user service: configuration, logging,
// the PostgreSQL store with migrations, the cache, the business services
// and the HTTP API, plus graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/learnhub/user-service/internal/logging"
	"github.com/learnhub/user-service/internal/server/cache"
	"github.com/learnhub/user-service/internal/server/config"
	"github.com/learnhub/user-service/internal/server/httpapi"
	"github.com/learnhub/user-service/internal/server/repositories/repomanager"
	"github.com/learnhub/user-service/internal/server/services"
	"github.com/learnhub/user-service/internal/server/verify"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	cache  cache.Cache
	router http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := logging.NewSlogLogger(slog.New(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	c := newCache(ctx, cfg, logger)

	userService := services.NewUserService(db, repos, c, logger, cfg)
	handler := httpapi.NewHandler(userService, verify.NewFromConfig(cfg), logger)
	router := httpapi.NewRouter(handler, httpapi.NewMetrics(), logger, cfg.Debug)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		cache:  c,
		router: router,
	}, nil
}

// newCache connects to Redis when a URL is configured, falling back to the
// in-process cache so a missing or unreachable Redis never blocks startup.
func newCache(ctx context.Context, cfg *config.Config, logger logging.Logger) cache.Cache {
	if cfg.RedisURL == "" {
		logger.Info(ctx, "no redis url configured, using in-process cache")
		return cache.NewMemoryCache()
	}

	c, err := cache.NewRedisCache(ctx, cfg.RedisURL, logger)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, using in-process cache", "error", err.Error())
		return cache.NewMemoryCache()
	}
	return c
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Port),
		Handler: app.router,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "server shutdown failed", "error", err.Error())
	}

	if closer, ok := app.cache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Warn(shutdownCtx, "closing cache failed", "error", err.Error())
		}
	}
	return app.db.Close()
}
