package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"villagework/internal/api/handlers"
	"villagework/internal/api/middleware"
	"villagework/internal/api/validation"
	"villagework/internal/background"
	"villagework/internal/config"
	"villagework/internal/grpc/interceptors"
	"villagework/internal/logging"
	"villagework/internal/marketplace"
	"villagework/pkg/models"
)

// Dependencies are the components the HTTP API is served from
type Dependencies struct {
	Service    *marketplace.Service
	Tasks      *background.TaskManager
	Limiter    *middleware.ClientLimiter // nil disables rate limiting
	RPCMetrics *interceptors.MetricsCollector
	Logger     logging.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, deps Dependencies) {
	e.HTTPErrorHandler = handlers.ErrorHandler
	e.Validator = validation.New()

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.RequestValidation(cfg.Server.MaxBodyBytes, deps.Logger))
	e.Use(middleware.RequestLogger())
	e.Use(middleware.CORSConfig(cfg.Server.AllowedOrigins))
	e.Use(middleware.TimeoutConfig(cfg.Server.WriteTimeout))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.Service, deps.Tasks))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/tasks", handlers.TaskHealthHandler(deps.Tasks))
		health.GET("/tasks/:id", handlers.TaskStatusHandler(deps.Tasks))
		health.GET("/rpc", handlers.RPCMetricsHandler(deps.RPCMetrics))
	}

	e.GET("/status", handlers.StatusHandler(deps.Service, deps.Tasks, deps.Limiter))

	svc := deps.Service
	auth := middleware.RequireAuth(svc)
	owner := middleware.RequireRole(models.RoleOwner, models.RoleAdmin)
	worker := middleware.RequireRole(models.RoleWorker)
	admin := middleware.RequireRole(models.RoleAdmin)

	api := e.Group("/api")
	if deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter))
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", handlers.RegisterHandler(svc))
		authGroup.POST("/login", handlers.LoginHandler(svc))
		authGroup.POST("/logout", handlers.LogoutHandler(svc), auth)
		authGroup.GET("/me", handlers.MeHandler(), auth)
	}

	jobs := api.Group("/jobs")
	{
		jobs.GET("", handlers.ListJobsHandler(svc))
		jobs.GET("/:id", handlers.GetJobHandler(svc))
		jobs.POST("", handlers.CreateJobHandler(svc), auth, owner)
		jobs.PUT("/:id", handlers.UpdateJobHandler(svc), auth, owner)
		jobs.PUT("/:id/status", handlers.SetJobStatusHandler(svc), auth, owner)
		jobs.DELETE("/:id", handlers.DeleteJobHandler(svc), auth, owner)
		jobs.GET("/:id/applications", handlers.JobApplicationsHandler(svc), auth, owner)
	}

	applications := api.Group("/applications", auth)
	{
		applications.POST("", handlers.ApplyHandler(svc), worker)
		applications.GET("/my-applications", handlers.MyApplicationsHandler(svc), worker)
		applications.PUT("/:id/status", handlers.UpdateApplicationStatusHandler(svc), owner)
	}

	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", handlers.NotificationsHandler(svc))
		notifications.GET("/unread-count", handlers.UnreadCountHandler(svc))
		notifications.PUT("/read-all", handlers.MarkAllReadHandler(svc))
		notifications.PUT("/:id/read", handlers.MarkReadHandler(svc))
	}

	payments := api.Group("/payments", auth)
	{
		payments.GET("/history", handlers.PaymentHistoryHandler(svc))
		payments.GET("/earnings/summary", handlers.EarningsSummaryHandler(svc))
		payments.POST("", handlers.CreatePaymentHandler(svc), owner)
		payments.PUT("/:id/status", handlers.UpdatePaymentStatusHandler(svc), owner)
	}

	api.GET("/admin/overview", handlers.AdminOverviewHandler(svc), auth, admin)

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "VillageWork",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
