package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"villagework/internal/logging"
	"villagework/pkg/utils"
)

func statusCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}

func logCompletion(logger logging.Logger, kind, method, requestID string, elapsed time.Duration, err error) {
	fields := map[string]interface{}{
		"request_id":      requestID,
		"method":          method,
		"processing_time": elapsed.String(),
		"status_code":     statusCode(err).String(),
		"type":            "grpc_" + kind + "_complete",
	}

	if err != nil {
		fields["error"] = err.Error()
		logger.Error("gRPC "+kind+" failed", fields)
		return
	}
	// health probes arrive every few seconds
	logger.Debug("gRPC "+kind+" completed", fields)
}

// LoggingInterceptor returns a unary interceptor that logs each call
func LoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		requestID := utils.GenerateRequestID()

		resp, err := handler(ctx, req)
		logCompletion(logger, "request", info.FullMethod, requestID, time.Since(start), err)
		return resp, err
	}
}

// StreamLoggingInterceptor logs stream start and completion
func StreamLoggingInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		requestID := utils.GenerateRequestID()

		logger.Debug("gRPC stream started", map[string]interface{}{
			"request_id": requestID,
			"method":     info.FullMethod,
			"type":       "grpc_stream_start",
		})

		err := handler(srv, ss)
		logCompletion(logger, "stream", info.FullMethod, requestID, time.Since(start), err)
		return err
	}
}
