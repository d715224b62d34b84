package mux

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"villagework/internal/config"
	"villagework/internal/grpc/interceptors"
	"villagework/internal/grpc/server"
	"villagework/internal/logging"
)

func TestServesHTTPAndGRPCOnOnePort(t *testing.T) {
	logger := logging.NewMultiLogger()
	grpcServer := server.NewServer(logger, interceptors.NewMetricsCollector(),
		server.Component{Name: "villagework.store", Check: func(context.Context) error { return nil }},
	)
	grpcServer.Refresh(context.Background())

	httpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	m := NewMultiplexer(config.Default(), grpcServer, httpHandler, logger)
	if err := m.Serve(lis); err != nil {
		t.Fatalf("Serve: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.Stop(ctx)
	})

	if !m.IsHealthy() || m.Address() == "" {
		t.Fatal("multiplexer not healthy after Serve")
	}

	resp, err := http.Get("http://" + m.Address() + "/ping")
	if err != nil {
		t.Fatalf("http get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("http body = %q", body)
	}

	conn, err := grpc.NewClient(m.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc client: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: "villagework.store"})
	if err != nil {
		t.Fatalf("grpc health: %v", err)
	}
	if hc.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("grpc status = %v", hc.Status)
	}
}
