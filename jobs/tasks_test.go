package jobs

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/pixelfolio/pixelfolio/internal/storage"
)

type stubStore struct {
	deleted []string
	err     error
}

func (s *stubStore) Upload(ctx context.Context, filename string, r io.Reader) (storage.Asset, error) {
	return storage.Asset{}, errors.New("not implemented")
}

func (s *stubStore) Delete(ctx context.Context, handle string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, handle)
	return nil
}

func TestAssetCleanupDeletesHandle(t *testing.T) {
	store := &stubStore{}
	job := AssetCleanupJob{Store: store}

	task, err := NewAssetCleanupTask(AssetCleanupPayload{Handle: "abc"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if task.Type() != TaskAssetCleanup {
		t.Fatalf("task type = %q", task.Type())
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "abc" {
		t.Fatalf("deleted = %v", store.deleted)
	}
}

func TestAssetCleanupRetriesOnStorageError(t *testing.T) {
	store := &stubStore{err: errors.New("storage down")}
	job := AssetCleanupJob{Store: store}

	task, _ := NewAssetCleanupTask(AssetCleanupPayload{Handle: "abc"})
	err := job.Handle(context.Background(), task)
	if err == nil {
		t.Fatal("expected error for retry")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("storage errors must stay retryable")
	}
}

func TestAssetCleanupDropsBadPayload(t *testing.T) {
	job := AssetCleanupJob{Store: &stubStore{}}

	for name, payload := range map[string][]byte{
		"malformed":      []byte("{not json"),
		"missing handle": []byte(`{}`),
	} {
		task := asynq.NewTask(TaskAssetCleanup, payload)
		err := job.Handle(context.Background(), task)
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("%s: expected SkipRetry, got %v", name, err)
		}
	}
}

func TestWelcomeEmailDropsBadPayload(t *testing.T) {
	job := WelcomeEmailJob{}
	task := asynq.NewTask(TaskWelcomeEmail, []byte("{not json"))
	if err := job.Handle(context.Background(), task); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestWelcomeEmailHandlesPayload(t *testing.T) {
	job := WelcomeEmailJob{}
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{To: "al@x.com", Name: "Al"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := job.Handle(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
}
