package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"villagework/internal/api/handlers"
	"villagework/internal/api/middleware"
	"villagework/internal/api/routes"
	"villagework/internal/background"
	"villagework/internal/config"
	"villagework/internal/events"
	"villagework/internal/grpc/interceptors"
	"villagework/internal/grpc/server"
	"villagework/internal/logging"
	"villagework/internal/marketplace"
	"villagework/internal/mux"
	"villagework/internal/store"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting VillageWork server", map[string]interface{}{"version": handlers.Version})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	publisher, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	logger.Info("Initializing background task manager")
	taskManager := background.NewTaskManager(cfg, logger)
	// not ctx: queued side effects must outlive the shutdown signal so Stop can drain them
	if err := taskManager.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start task manager: %w", err)
	}

	svc := marketplace.NewService(st, taskManager, publisher, logger, marketplace.Options{
		SessionTTL: cfg.Auth.SessionTTL,
		BcryptCost: cfg.Auth.BcryptCost,
	})

	if cfg.Auth.AdminPhone != "" && cfg.Auth.AdminPassword != "" {
		if err := svc.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminPhone, cfg.Auth.AdminPassword); err != nil {
			return fmt.Errorf("failed to bootstrap admin account: %w", err)
		}
	}
	go purgeSessions(ctx, svc, logger, time.Hour)

	var limiter *middleware.ClientLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewClientLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.IdleTTL, logger)
		limiter.Start(5 * time.Minute)
		defer limiter.Stop()
	}

	rpcMetrics := interceptors.NewMetricsCollector()
	interceptors.StartMetricsReporting(ctx, rpcMetrics, logger, 15*time.Minute)

	components := []server.Component{
		{Name: "villagework.store", Check: svc.Ping},
		{Name: "villagework.tasks", Check: func(context.Context) error {
			if !taskManager.IsHealthy() {
				return errors.New("task manager is not running")
			}
			return nil
		}},
	}
	if nats, ok := publisher.(*events.NATSPublisher); ok {
		components = append(components, server.Component{Name: "villagework.events", Check: func(context.Context) error {
			if !nats.Connected() {
				return errors.New("NATS connection is down")
			}
			return nil
		}})
	}
	grpcServer := server.NewServer(logger, rpcMetrics, components...)
	grpcServer.Monitor(ctx, 10*time.Second)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	routes.SetupRoutes(e, cfg, routes.Dependencies{
		Service:    svc,
		Tasks:      taskManager,
		Limiter:    limiter,
		RPCMetrics: rpcMetrics,
		Logger:     logger,
	})

	m := mux.NewMultiplexer(cfg, grpcServer, e, logger)
	if err := m.Start(cfg.Address()); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// stop accepting requests before draining side effects they may enqueue
	if err := m.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error stopping listeners")
	}

	logger.Info("Stopping background task manager...")
	if err := taskManager.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Error stopping task manager")
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (store.Store, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		logger.Warn("Using in-memory storage; data is lost on restart")
		return store.NewMemoryStore(), nil
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:             cfg.Storage.DSN,
			MaxOpenConns:    cfg.Storage.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		logger.Info("Connected to postgres")
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func openPublisher(cfg *config.Config, logger logging.Logger) (events.Publisher, error) {
	if !cfg.NATS.Enabled {
		return events.NewLogPublisher(logger), nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.ConnTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return pub, nil
}

func purgeSessions(ctx context.Context, svc *marketplace.Service, logger logging.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := svc.PurgeExpiredSessions(ctx)
			if err != nil {
				logger.WithError(err).Warn("Failed to purge expired sessions")
				continue
			}
			if n > 0 {
				logger.Info("Purged expired sessions", map[string]interface{}{"count": n})
			}
		case <-ctx.Done():
			return
		}
	}
}
