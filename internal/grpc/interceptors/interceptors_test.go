package interceptors

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"villagework/internal/logging"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/villagework.Test/Call"}

func TestMetricsInterceptorCounts(t *testing.T) {
	collector := NewMetricsCollector()
	intercept := MetricsInterceptor(collector)

	ok := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }
	fail := func(ctx context.Context, req interface{}) (interface{}, error) { return nil, errors.New("boom") }

	for _, h := range []grpc.UnaryHandler{ok, ok, fail} {
		intercept(context.Background(), nil, info, h)
	}

	m, found := collector.Method(info.FullMethod)
	if !found {
		t.Fatal("method not recorded")
	}
	if m.RequestCount != 3 || m.SuccessCount != 2 || m.ErrorCount != 1 {
		t.Errorf("metrics = %+v", m)
	}

	snap := collector.Snapshot()
	if len(snap) != 1 || snap[0].Method != info.FullMethod {
		t.Errorf("snapshot = %+v", snap)
	}

	collector.Reset()
	if len(collector.Snapshot()) != 0 {
		t.Error("Reset left metrics behind")
	}
}

func TestRecoveryInterceptorConvertsPanic(t *testing.T) {
	intercept := RecoveryInterceptor(logging.NewMultiLogger(), nil)

	resp, err := intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("nil map")
	})
	if resp != nil {
		t.Errorf("resp = %v", resp)
	}
	if status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	intercept := LoggingInterceptor(logging.NewMultiLogger())
	want := status.Error(codes.NotFound, "missing")

	_, err := intercept(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(time.Millisecond)
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v", err)
	}
	if statusCode(err) != codes.NotFound || statusCode(nil) != codes.OK || statusCode(errors.New("x")) != codes.Internal {
		t.Error("statusCode mapping is wrong")
	}
}
