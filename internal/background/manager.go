package background

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"villagework/internal/config"
	"villagework/internal/logging"
)

// Task manager configuration constants
const (
	DefaultMaxWorkers   = 4
	DefaultMaxQueueSize = 256

	MaxWorkers   = 1000
	MaxQueueSize = 10000
)

var (
	ErrNotRunning = errors.New("task manager is not running")
	ErrQueueFull  = errors.New("task queue is full")
)

// Dispatcher accepts side-effect work for asynchronous execution
type Dispatcher interface {
	Submit(ctx context.Context, name string, metadata map[string]interface{}, fn TaskFunc) (string, error)
}

// TaskManager runs submitted tasks on a fixed pool of workers
type TaskManager struct {
	store        TaskStore
	logger       *TaskCompletionLogger
	appLogger    logging.Logger
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.RWMutex
	running      bool
	taskChan     chan *taskExecution
	stopCleanup  chan struct{}
	maxWorkers   int
	maxQueueSize int

	taskTimeout     time.Duration
	cleanupInterval time.Duration
	maxTaskAge      time.Duration
}

type taskExecution struct {
	processID string
	name      string
	fn        TaskFunc
}

// validateTaskManagerConfig validates and returns safe configuration values
func validateTaskManagerConfig(cfg *config.Config) (maxWorkers, maxQueueSize int, err error) {
	maxWorkers = cfg.Workers.PoolSize
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	} else if maxWorkers > MaxWorkers {
		return 0, 0, fmt.Errorf("worker pool size (%d) exceeds maximum (%d)", maxWorkers, MaxWorkers)
	}

	maxQueueSize = cfg.Workers.QueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	} else if maxQueueSize > MaxQueueSize {
		return 0, 0, fmt.Errorf("queue size (%d) exceeds maximum (%d)", maxQueueSize, MaxQueueSize)
	}

	return maxWorkers, maxQueueSize, nil
}

// NewTaskManager creates a new task manager
func NewTaskManager(cfg *config.Config, logger logging.Logger) *TaskManager {
	maxWorkers, maxQueueSize, err := validateTaskManagerConfig(cfg)
	if err != nil {
		logger.Warn("Task manager configuration validation failed, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		maxWorkers = DefaultMaxWorkers
		maxQueueSize = DefaultMaxQueueSize
	}

	logger.Info("Task manager configuration initialized", map[string]interface{}{
		"max_workers":    maxWorkers,
		"max_queue_size": maxQueueSize,
		"using_defaults": err != nil,
	})

	return &TaskManager{
		store:           NewInMemoryTaskStore(),
		logger:          NewTaskCompletionLogger(logger),
		appLogger:       logger,
		maxWorkers:      maxWorkers,
		maxQueueSize:    maxQueueSize,
		taskTimeout:     cfg.BackgroundTasks.TaskTimeout,
		cleanupInterval: cfg.BackgroundTasks.CleanupInterval,
		maxTaskAge:      cfg.BackgroundTasks.MaxTaskAge,
	}
}

// Start starts the workers and the cleanup routine
func (tm *TaskManager) Start(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.running {
		return fmt.Errorf("task manager already running")
	}

	tm.ctx, tm.cancel = context.WithCancel(ctx)
	tm.taskChan = make(chan *taskExecution, tm.maxQueueSize)
	tm.stopCleanup = make(chan struct{})
	tm.running = true

	for i := 0; i < tm.maxWorkers; i++ {
		tm.wg.Add(1)
		go tm.worker(i)
	}

	if tm.cleanupInterval > 0 {
		tm.wg.Add(1)
		go tm.cleanupRoutine(tm.stopCleanup)
	}

	tm.appLogger.Info("Task manager started", map[string]interface{}{
		"max_workers": tm.maxWorkers,
	})
	return nil
}

// Stop stops accepting work, lets queued tasks drain and waits for the
// workers until ctx expires
func (tm *TaskManager) Stop(ctx context.Context) error {
	tm.mu.Lock()
	if !tm.running {
		tm.mu.Unlock()
		return nil
	}
	tm.running = false
	close(tm.taskChan)
	close(tm.stopCleanup)
	tm.mu.Unlock()

	tm.appLogger.Info("Stopping task manager...")

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		tm.cancel()
		tm.appLogger.Info("Task manager stopped gracefully")
		return nil
	case <-ctx.Done():
		tm.cancel()
		tm.appLogger.Warn("Task manager shutdown timed out")
		return ctx.Err()
	}
}

// Submit records the task as ACCEPTED and queues it. It never blocks: a full
// queue fails with ErrQueueFull.
func (tm *TaskManager) Submit(ctx context.Context, name string, metadata map[string]interface{}, fn TaskFunc) (string, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.running {
		return "", ErrNotRunning
	}

	processID := uuid.NewString()
	result := &TaskResult{
		ProcessID: processID,
		Name:      name,
		Status:    TaskStatusAccepted,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	execution := &taskExecution{processID: processID, name: name, fn: fn}

	// recorded before queueing so a fast worker always finds it
	if err := tm.store.Store(ctx, result); err != nil {
		return "", fmt.Errorf("failed to store task result: %w", err)
	}

	select {
	case tm.taskChan <- execution:
		tm.logger.LogTaskAccepted(processID, name)
		return processID, nil
	default:
		result.Status = TaskStatusFailure
		result.Error = ErrQueueFull.Error()
		tm.store.Update(ctx, result)
		return "", ErrQueueFull
	}
}

// GetTaskResult retrieves the result of a task by process ID
func (tm *TaskManager) GetTaskResult(ctx context.Context, processID string) (*TaskResult, error) {
	return tm.store.Get(ctx, processID)
}

// ListTasks lists every recorded task, newest first
func (tm *TaskManager) ListTasks(ctx context.Context) ([]*TaskResult, error) {
	return tm.store.List(ctx)
}

// QueueDepth returns the number of tasks waiting for a worker
func (tm *TaskManager) QueueDepth() int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if tm.taskChan == nil {
		return 0
	}
	return len(tm.taskChan)
}

// IsHealthy checks if the task manager is running
func (tm *TaskManager) IsHealthy() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.running && tm.ctx.Err() == nil
}

func (tm *TaskManager) worker(workerID int) {
	defer tm.wg.Done()

	for task := range tm.taskChan {
		tm.processTask(workerID, task)
	}
}

func (tm *TaskManager) processTask(workerID int, task *taskExecution) {
	startTime := time.Now()

	if err := tm.updateTaskStatus(task.processID, TaskStatusProcessing); err != nil {
		tm.appLogger.Error("Failed to update task status to processing", map[string]interface{}{
			"process_id": task.processID,
			"error":      err.Error(),
		})
	}
	tm.logger.LogTaskStart(task.processID, task.name)

	ctx := tm.ctx
	if tm.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tm.taskTimeout)
		defer cancel()
	}

	err := tm.run(ctx, task)
	processingTime := time.Since(startTime)
	completedAt := time.Now()

	result, getErr := tm.store.Get(context.Background(), task.processID)
	if getErr != nil {
		result = &TaskResult{ProcessID: task.processID, Name: task.name, CreatedAt: startTime}
	}
	result.ProcessingTime = &processingTime
	result.CompletedAt = &completedAt

	if err != nil {
		result.Status = TaskStatusFailure
		result.Error = err.Error()
		tm.logger.LogTaskError(task.processID, task.name, err)
	} else {
		result.Status = TaskStatusSuccess
		tm.logger.LogTaskSuccess(task.processID, task.name, processingTime)
	}

	if getErr != nil {
		err = tm.store.Store(context.Background(), result)
	} else {
		err = tm.store.Update(context.Background(), result)
	}
	if err != nil {
		tm.appLogger.Error("Failed to store task result", map[string]interface{}{
			"worker_id":  workerID,
			"process_id": task.processID,
			"error":      err.Error(),
		})
	}
}

// run executes the task, turning a panic into a failure
func (tm *TaskManager) run(ctx context.Context, task *taskExecution) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task.fn(ctx)
}

func (tm *TaskManager) updateTaskStatus(processID string, status TaskStatus) error {
	result, err := tm.store.Get(context.Background(), processID)
	if err != nil {
		return err
	}

	result.Status = status
	return tm.store.Update(context.Background(), result)
}

// cleanupRoutine periodically drops old task results
func (tm *TaskManager) cleanupRoutine(stop <-chan struct{}) {
	defer tm.wg.Done()

	ticker := time.NewTicker(tm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-tm.ctx.Done():
			return
		case <-ticker.C:
			tm.cleanup()
		}
	}
}

func (tm *TaskManager) cleanup() {
	removed, err := tm.store.Cleanup(context.Background(), tm.maxTaskAge)
	if err != nil {
		tm.appLogger.Error("Failed to cleanup old task results", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if removed > 0 {
		tm.appLogger.Debug("Cleaned up task results", map[string]interface{}{
			"removed": removed,
		})
	}
}

// Inline runs tasks synchronously on the caller's goroutine. Used by tests and
// by tools that have no long-lived worker pool.
type Inline struct{}

func (Inline) Submit(ctx context.Context, name string, metadata map[string]interface{}, fn TaskFunc) (string, error) {
	if err := fn(ctx); err != nil {
		return "", fmt.Errorf("task %s: %w", name, err)
	}
	return uuid.NewString(), nil
}
