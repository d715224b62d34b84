// Package server runs the gRPC side channel: the standard health service,
// reporting one serving status per backend component, plus reflection.
package server

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"villagework/internal/grpc/interceptors"
	"villagework/internal/logging"
)

type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	metrics    *interceptors.MetricsCollector
	checks     []Component
	logger     logging.Logger
}

func NewServer(logger logging.Logger, metrics *interceptors.MetricsCollector, components ...Component) *Server {
	logger = logger.WithField("component", "grpc")

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger, nil),
			interceptors.LoggingInterceptor(logger),
			interceptors.MetricsInterceptor(metrics),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger, nil),
			interceptors.StreamLoggingInterceptor(logger),
			interceptors.StreamMetricsInterceptor(metrics),
		),
	)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)

	s := &Server{
		grpcServer: grpcServer,
		health:     hs,
		metrics:    metrics,
		checks:     components,
		logger:     logger,
	}
	for _, c := range components {
		hs.SetServingStatus(c.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return s
}

// Serve blocks serving lis until Stop is called
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpcServer.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains in-flight calls
func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) Metrics() *interceptors.MetricsCollector {
	return s.metrics
}

// Health exposes the health server, mainly for in-process checks
func (s *Server) Health() healthpb.HealthServer {
	return s.health
}
