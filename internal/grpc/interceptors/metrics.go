package interceptors

import (
	"context"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"

	"villagework/internal/logging"
)

// MetricsData holds counters for one gRPC method
type MetricsData struct {
	RequestCount    int64         `json:"request_count"`
	SuccessCount    int64         `json:"success_count"`
	ErrorCount      int64         `json:"error_count"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	LastUpdated     time.Time     `json:"last_updated"`
}

// MethodMetrics is a snapshot entry returned by Snapshot
type MethodMetrics struct {
	Method  string      `json:"method"`
	Metrics MetricsData `json:"metrics"`
}

// MetricsCollector aggregates per-method call counts and latencies
type MetricsCollector struct {
	mu      sync.RWMutex
	methods map[string]*MetricsData
	now     func() time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		methods: make(map[string]*MetricsData),
		now:     time.Now,
	}
}

// RecordMetrics records one call of method
func (c *MetricsCollector) RecordMetrics(method string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.methods[method]
	if !ok {
		m = &MetricsData{}
		c.methods[method] = m
	}

	m.RequestCount++
	m.TotalDuration += duration
	m.AverageDuration = m.TotalDuration / time.Duration(m.RequestCount)
	m.LastUpdated = c.now()

	if err != nil {
		m.ErrorCount++
	} else {
		m.SuccessCount++
	}
}

// Method returns a copy of the metrics for method, or false if it was never called
func (c *MetricsCollector) Method(method string) (MetricsData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.methods[method]
	if !ok {
		return MetricsData{}, false
	}
	return *m, true
}

// Snapshot returns a copy of every method's metrics, sorted by method name
func (c *MetricsCollector) Snapshot() []MethodMetrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]MethodMetrics, 0, len(c.methods))
	for method, m := range c.methods {
		out = append(out, MethodMetrics{Method: method, Metrics: *m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out
}

func (c *MetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.methods = make(map[string]*MetricsData)
}

// MetricsInterceptor returns a unary interceptor recording into collector
func MetricsInterceptor(collector *MetricsCollector) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		collector.RecordMetrics(info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// StreamMetricsInterceptor returns a stream interceptor recording into collector
func StreamMetricsInterceptor(collector *MetricsCollector) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		collector.RecordMetrics(info.FullMethod, time.Since(start), err)
		return err
	}
}

// LogMetricsSummary logs one line per method
func LogMetricsSummary(collector *MetricsCollector, logger logging.Logger) {
	for _, m := range collector.Snapshot() {
		successRate := float64(0)
		if m.Metrics.RequestCount > 0 {
			successRate = float64(m.Metrics.SuccessCount) / float64(m.Metrics.RequestCount) * 100
		}

		logger.Info("gRPC method metrics summary", map[string]interface{}{
			"method":           m.Method,
			"request_count":    m.Metrics.RequestCount,
			"error_count":      m.Metrics.ErrorCount,
			"success_rate":     successRate,
			"average_duration": m.Metrics.AverageDuration.String(),
			"type":             "grpc_metrics_summary",
		})
	}
}

// StartMetricsReporting logs a summary every interval until ctx is done
func StartMetricsReporting(ctx context.Context, collector *MetricsCollector, logger logging.Logger, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				LogMetricsSummary(collector, logger)
			case <-ctx.Done():
				return
			}
		}
	}()
}
