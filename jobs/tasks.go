// Package jobs defines the background tasks processed by the asynq worker.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pixelfolio/pixelfolio/internal/storage"
	"github.com/pixelfolio/pixelfolio/internal/trending"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAssetCleanup deletes an object-storage asset after its post or
	// account is removed.
	TaskAssetCleanup = "asset:cleanup"
	// TaskWelcomeEmail sends the post-signup email.
	TaskWelcomeEmail = "mail:welcome"
	// TaskTrendingDecay periodically ages trending scores.
	TaskTrendingDecay = "trending:decay"
)

// AssetCleanupPayload identifies the asset to delete.
type AssetCleanupPayload struct {
	Handle string `json:"handle"`
}

// NewAssetCleanupTask constructs an asset cleanup task.
func NewAssetCleanupTask(payload AssetCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAssetCleanup, data), nil
}

// WelcomeEmailPayload describes the signup notification.
type WelcomeEmailPayload struct {
	To   string `json:"to"`
	Name string `json:"name"`
}

// NewWelcomeEmailTask constructs a welcome email task.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWelcomeEmail, data), nil
}

// NewTrendingDecayTask constructs a trending decay task.
func NewTrendingDecayTask() *asynq.Task {
	return asynq.NewTask(TaskTrendingDecay, nil)
}

// AssetCleanupJob deletes orphaned storage assets.
type AssetCleanupJob struct {
	Store  storage.Store
	Logger *slog.Logger
}

// Handle processes TaskAssetCleanup tasks. Storage failures return an error
// so asynq retries; a malformed payload is dropped.
func (j AssetCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AssetCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Handle == "" {
		return asynq.SkipRetry
	}
	if err := j.Store.Delete(ctx, payload.Handle); err != nil {
		if j.Logger != nil {
			j.Logger.Warn("asset cleanup", slog.String("handle", payload.Handle), slog.Any("error", err))
		}
		return err
	}
	return nil
}

// WelcomeEmailJob sends signup notifications.
type WelcomeEmailJob struct {
	Logger *slog.Logger
}

// Handle processes TaskWelcomeEmail tasks.
// TODO: wire an SMTP sender; currently only logs the delivery.
func (j WelcomeEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if j.Logger != nil {
		j.Logger.Info("welcome email", slog.String("to", payload.To), slog.String("name", payload.Name))
	}
	return nil
}

// TrendingDecayJob ages the trending ranking.
type TrendingDecayJob struct {
	Counter *trending.Counter
	Logger  *slog.Logger
}

// Handle processes TaskTrendingDecay tasks.
func (j TrendingDecayJob) Handle(ctx context.Context, t *asynq.Task) error {
	if err := j.Counter.Decay(ctx); err != nil {
		if j.Logger != nil {
			j.Logger.Warn("trending decay", slog.Any("error", err))
		}
		return err
	}
	return nil
}
