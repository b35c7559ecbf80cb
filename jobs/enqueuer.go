package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Enqueuer submits background tasks from request handlers. It satisfies the
// Cleaner and Notifier ports of the domain services.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer constructs an Enqueuer from Redis connection options.
func NewEnqueuer(opts asynq.RedisClientOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(opts)}
}

// Close releases the underlying client.
func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// AssetCleanup enqueues deletion of a storage asset.
func (e *Enqueuer) AssetCleanup(ctx context.Context, handle string) error {
	task, err := NewAssetCleanupTask(AssetCleanupPayload{Handle: handle})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(5))
	return err
}

// WelcomeEmail enqueues the signup notification.
func (e *Enqueuer) WelcomeEmail(ctx context.Context, email, name string) error {
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{To: email, Name: name})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	return err
}
