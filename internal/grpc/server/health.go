package server

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// OverallService is the empty service name health clients use for the whole server
const OverallService = ""

// Component is a named dependency whose health is reported as its own
// gRPC health service, e.g. "villagework.store".
type Component struct {
	Name  string
	Check func(ctx context.Context) error
}

// Refresh runs every component check and updates serving statuses. The
// overall status is SERVING only when every component is.
func (s *Server) Refresh(ctx context.Context) map[string]string {
	results := make(map[string]string, len(s.checks))
	overall := healthpb.HealthCheckResponse_SERVING

	for _, c := range s.checks {
		st := healthpb.HealthCheckResponse_SERVING
		if err := c.Check(ctx); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
			s.logger.Warn("component unhealthy", map[string]interface{}{
				"service": c.Name,
				"error":   err.Error(),
			})
		}
		s.health.SetServingStatus(c.Name, st)
		results[c.Name] = st.String()
	}

	s.health.SetServingStatus(OverallService, overall)
	return results
}

// Monitor refreshes statuses immediately and then every interval until ctx is done
func (s *Server) Monitor(ctx context.Context, interval time.Duration) {
	check := func() {
		cctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		s.Refresh(cctx)
	}

	check()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				check()
			case <-ctx.Done():
				return
			}
		}
	}()
}
