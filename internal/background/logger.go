package background

import (
	"time"

	"villagework/internal/logging"
)

// TaskCompletionLogger handles structured logging for task lifecycle events
type TaskCompletionLogger struct {
	logger logging.Logger
}

// NewTaskCompletionLogger creates a task logger tagged with the background component
func NewTaskCompletionLogger(logger logging.Logger) *TaskCompletionLogger {
	return &TaskCompletionLogger{
		logger: logger.WithField("component", "background"),
	}
}

// LogTaskAccepted logs when a task is accepted for processing
func (l *TaskCompletionLogger) LogTaskAccepted(processID, name string) {
	l.logger.Debug("Background task accepted", map[string]interface{}{
		"process_id": processID,
		"operation":  name,
		"status":     TaskStatusAccepted,
	})
}

// LogTaskStart logs when a task starts processing
func (l *TaskCompletionLogger) LogTaskStart(processID, name string) {
	l.logger.Debug("Background task started", map[string]interface{}{
		"process_id": processID,
		"operation":  name,
		"status":     TaskStatusProcessing,
	})
}

// LogTaskError logs task errors during processing
func (l *TaskCompletionLogger) LogTaskError(processID, name string, err error) {
	l.logger.Error("Background task failed", map[string]interface{}{
		"process_id": processID,
		"operation":  name,
		"status":     TaskStatusFailure,
		"error":      err.Error(),
	})
}

// LogTaskSuccess logs successful task completion
func (l *TaskCompletionLogger) LogTaskSuccess(processID, name string, processingTime time.Duration) {
	l.logger.Info("Background task completed", map[string]interface{}{
		"process_id":      processID,
		"operation":       name,
		"status":          TaskStatusSuccess,
		"processing_time": processingTime.String(),
	})
}
