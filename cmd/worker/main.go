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

	"github.com/pixelfolio/pixelfolio/internal/app"
	jobmetrics "github.com/pixelfolio/pixelfolio/internal/jobs"
	"github.com/pixelfolio/pixelfolio/internal/platform/cache"
	"github.com/pixelfolio/pixelfolio/internal/storage"
	"github.com/pixelfolio/pixelfolio/internal/trending"
	"github.com/pixelfolio/pixelfolio/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	store := storage.NewHTTPStore(cfg.StorageEndpoint, cfg.StorageAPIKey, &http.Client{Timeout: 30 * time.Second})
	counter := trending.NewCounter(redisClient, logger)

	cleanupJob := jobs.AssetCleanupJob{Store: store, Logger: logger}
	welcomeJob := jobs.WelcomeEmailJob{Logger: logger}
	decayJob := jobs.TrendingDecayJob{Counter: counter, Logger: logger}

	metrics := jobmetrics.NewMetrics(nil)
	instrument := func(name string, h asynq.HandlerFunc) asynq.HandlerFunc {
		return func(ctx context.Context, t *asynq.Task) error {
			return metrics.Track(name).End(h(ctx, t))
		}
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAssetCleanup, Handler: instrument(jobs.TaskAssetCleanup, cleanupJob.Handle)},
			{Type: jobs.TaskWelcomeEmail, Handler: instrument(jobs.TaskWelcomeEmail, welcomeJob.Handle)},
			{Type: jobs.TaskTrendingDecay, Handler: instrument(jobs.TaskTrendingDecay, decayJob.Handle)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 3 * * *", Task: jobs.NewTrendingDecayTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
