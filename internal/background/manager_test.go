package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"villagework/internal/config"
	"villagework/internal/logging"
)

func newTestManager(t *testing.T, workers, queue int) *TaskManager {
	t.Helper()
	cfg := config.Default()
	cfg.Workers.PoolSize = workers
	cfg.Workers.QueueSize = queue
	cfg.BackgroundTasks.CleanupInterval = 0

	tm := NewTaskManager(cfg, logging.NewMultiLogger())
	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		tm.Stop(ctx)
	})
	return tm
}

func waitDone(t *testing.T, tm *TaskManager, id string) *TaskResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		result, err := tm.GetTaskResult(context.Background(), id)
		if err == nil && result.Done() {
			return result
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task %s did not finish", id)
	return nil
}

func TestTaskManagerRunsTasks(t *testing.T) {
	tm := newTestManager(t, 2, 8)
	ctx := context.Background()

	var ran atomic.Int32
	okID, err := tm.Submit(ctx, "notify", map[string]interface{}{"user_id": "u1"}, func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	failID, _ := tm.Submit(ctx, "publish", nil, func(ctx context.Context) error {
		return errors.New("broker down")
	})
	panicID, _ := tm.Submit(ctx, "explode", nil, func(ctx context.Context) error {
		panic("boom")
	})

	if got := waitDone(t, tm, okID); got.Status != TaskStatusSuccess || got.CompletedAt == nil || got.Metadata["user_id"] != "u1" {
		t.Errorf("ok task = %+v", got)
	}
	if got := waitDone(t, tm, failID); got.Status != TaskStatusFailure || got.Error != "broker down" {
		t.Errorf("failed task = %+v", got)
	}
	if got := waitDone(t, tm, panicID); got.Status != TaskStatusFailure {
		t.Errorf("panicking task = %+v", got)
	}
	if ran.Load() != 1 {
		t.Errorf("ran = %d, want 1", ran.Load())
	}

	tasks, err := tm.ListTasks(ctx)
	if err != nil || len(tasks) != 3 {
		t.Errorf("ListTasks = %d tasks, %v", len(tasks), err)
	}
}

func TestTaskManagerQueueFull(t *testing.T) {
	tm := newTestManager(t, 1, 1)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	block := func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}
	if _, err := tm.Submit(ctx, "block", nil, block); err != nil {
		t.Fatal(err)
	}
	<-started

	if _, err := tm.Submit(ctx, "queued", nil, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if _, err := tm.Submit(ctx, "overflow", nil, func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Errorf("third Submit err = %v, want ErrQueueFull", err)
	}
	close(release)
}

func TestTaskManagerStopDrainsQueue(t *testing.T) {
	cfg := config.Default()
	cfg.Workers.PoolSize = 1
	cfg.BackgroundTasks.CleanupInterval = 0
	tm := NewTaskManager(cfg, logging.NewMultiLogger())
	if err := tm.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if _, err := tm.Submit(context.Background(), "count", nil, func(context.Context) error {
			ran.Add(1)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tm.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if ran.Load() != 5 {
		t.Errorf("ran = %d, want 5", ran.Load())
	}
	if tm.IsHealthy() {
		t.Error("stopped manager reports healthy")
	}
	if _, err := tm.Submit(context.Background(), "late", nil, func(context.Context) error { return nil }); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Submit after Stop err = %v, want ErrNotRunning", err)
	}
}

func TestTaskManagerStopsCleanupRoutine(t *testing.T) {
	cfg := config.Default()
	if cfg.BackgroundTasks.CleanupInterval <= 0 {
		t.Fatalf("default cleanup interval = %s", cfg.BackgroundTasks.CleanupInterval)
	}
	tm := NewTaskManager(cfg, logging.NewMultiLogger())
	if err := tm.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := tm.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// a stopped manager can be started again
	if err := tm.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := tm.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestInMemoryTaskStoreCleanup(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()
	store.Store(ctx, &TaskResult{ProcessID: "old", CreatedAt: time.Now().Add(-2 * time.Hour)})
	store.Store(ctx, &TaskResult{ProcessID: "new", CreatedAt: time.Now()})

	removed, err := store.Cleanup(ctx, time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("Cleanup = %d, %v", removed, err)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("old task still present: %v", err)
	}
	if err := store.Update(ctx, &TaskResult{ProcessID: "missing"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Update missing err = %v", err)
	}
}

func TestInlineDispatcher(t *testing.T) {
	called := false
	if _, err := (Inline{}).Submit(context.Background(), "x", nil, func(context.Context) error {
		called = true
		return nil
	}); err != nil || !called {
		t.Fatalf("Inline Submit = %v, called %v", err, called)
	}

	_, err := (Inline{}).Submit(context.Background(), "x", nil, func(context.Context) error {
		return errors.New("nope")
	})
	if err == nil {
		t.Fatal("expected error from failing inline task")
	}
}
