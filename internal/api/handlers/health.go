package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/middleware"
	"villagework/internal/background"
	"villagework/internal/grpc/interceptors"
	"villagework/pkg/models"
	"villagework/pkg/utils"
)

// Version is reported by the health endpoints; set at build time with -ldflags
var Version = "1.0.0"

var startTime = time.Now()

// Pinger is a dependency whose reachability gates readiness
type Pinger interface {
	Ping(ctx context.Context) error
}

func healthResponse(status string, checks map[string]string) models.HealthResponse {
	return models.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks:    checks,
	}
}

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse("healthy", map[string]string{"api": "ok"}))
}

// LivenessHandler answers as long as the process can serve HTTP
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse("alive", nil))
}

// ReadinessHandler reports 503 until the store answers and the task workers run
func ReadinessHandler(store Pinger, tasks *background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(ctxOf(c), 2*time.Second)
		defer cancel()

		checks := map[string]string{"api": "ok", "store": "ok", "tasks": "ok"}
		ready := true

		if err := store.Ping(ctx); err != nil {
			checks["store"] = err.Error()
			ready = false
		}
		if !tasks.IsHealthy() {
			checks["tasks"] = "not running"
			ready = false
		}

		if !ready {
			middleware.Logger(c).Warn("Readiness check failed", map[string]interface{}{"checks": checks})
			return c.JSON(http.StatusServiceUnavailable, healthResponse("not_ready", checks))
		}
		return c.JSON(http.StatusOK, healthResponse("ready", checks))
	}
}

// StatusHandler provides detailed service status
func StatusHandler(store Pinger, tasks *background.TaskManager, limiter *middleware.ClientLimiter) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(ctxOf(c), 2*time.Second)
		defer cancel()

		checks := map[string]string{
			"api":         "operational",
			"store":       "operational",
			"tasks":       "operational",
			"queue_depth": strconv.Itoa(tasks.QueueDepth()),
			"uptime":      utils.FormatDuration(time.Since(startTime)),
		}
		status := "operational"

		if err := store.Ping(ctx); err != nil {
			checks["store"] = "unavailable"
			status = "degraded"
		}
		if !tasks.IsHealthy() {
			checks["tasks"] = "stopped"
			status = "degraded"
		}
		if limiter != nil {
			stats := limiter.Stats()
			checks["rate_limited_clients"] = strconv.Itoa(stats.Clients)
			checks["rate_limit_rejections"] = strconv.Itoa(int(stats.Rejected))
		}

		return c.JSON(http.StatusOK, healthResponse(status, checks))
	}
}

// TaskHealthHandler lists recent side-effect tasks and the queue state
func TaskHealthHandler(tasks *background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := tasks.ListTasks(ctxOf(c))
		if err != nil {
			return err
		}

		counts := map[background.TaskStatus]int{}
		for _, t := range list {
			counts[t.Status]++
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"healthy":     tasks.IsHealthy(),
			"queue_depth": tasks.QueueDepth(),
			"counts":      counts,
			"tasks":       list,
		})
	}
}

// TaskStatusHandler reports one side-effect task by its process id
func TaskStatusHandler(tasks *background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := tasks.GetTaskResult(ctxOf(c), c.Param("id"))
		if errors.Is(err, background.ErrTaskNotFound) {
			return utils.NewNotFoundError("Task not found")
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

// RPCMetricsHandler serves the gRPC per-method metrics snapshot
func RPCMetricsHandler(metrics *interceptors.MetricsCollector) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"methods": metrics.Snapshot(),
		})
	}
}
