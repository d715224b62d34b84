package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"villagework/internal/grpc/interceptors"
	"villagework/internal/logging"
)

func TestRefreshReportsPerComponentStatus(t *testing.T) {
	var storeDown atomic.Bool
	srv := NewServer(logging.NewMultiLogger(), interceptors.NewMetricsCollector(),
		Component{Name: "villagework.store", Check: func(context.Context) error {
			if storeDown.Load() {
				return errors.New("connection refused")
			}
			return nil
		}},
		Component{Name: "villagework.tasks", Check: func(context.Context) error { return nil }},
	)

	ctx := context.Background()
	got := srv.Refresh(ctx)
	if got["villagework.store"] != "SERVING" || got["villagework.tasks"] != "SERVING" {
		t.Fatalf("Refresh = %v", got)
	}
	assertStatus(t, srv, OverallService, healthpb.HealthCheckResponse_SERVING)

	storeDown.Store(true)
	srv.Refresh(ctx)
	assertStatus(t, srv, "villagework.store", healthpb.HealthCheckResponse_NOT_SERVING)
	assertStatus(t, srv, "villagework.tasks", healthpb.HealthCheckResponse_SERVING)
	assertStatus(t, srv, OverallService, healthpb.HealthCheckResponse_NOT_SERVING)
}

func assertStatus(t *testing.T, srv *Server, service string, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	resp, err := srv.Health().Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	if resp.Status != want {
		t.Errorf("Check(%q) = %v, want %v", service, resp.Status, want)
	}
}

func TestHealthOverTheWire(t *testing.T) {
	metrics := interceptors.NewMetricsCollector()
	srv := NewServer(logging.NewMultiLogger(), metrics,
		Component{Name: "villagework.store", Check: func(context.Context) error { return nil }},
	)
	srv.Refresh(context.Background())

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "villagework.store"})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.Status)
	}

	m, ok := metrics.Method("/grpc.health.v1.Health/Check")
	if !ok || m.RequestCount != 1 || m.SuccessCount != 1 {
		t.Errorf("metrics = %+v, %v", m, ok)
	}
}
