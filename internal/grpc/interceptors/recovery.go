package interceptors

import (
	"context"
	"fmt"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"villagework/internal/logging"
)

// PanicRecoveryHandler converts a recovered panic value into the returned error
type PanicRecoveryHandler func(p interface{}) error

// DefaultPanicRecoveryHandler hides the panic value from callers
func DefaultPanicRecoveryHandler() PanicRecoveryHandler {
	return func(p interface{}) error {
		return status.Error(codes.Internal, "internal server error")
	}
}

func logPanic(logger logging.Logger, method string, p interface{}, kind string) {
	logger.Error("gRPC handler panic recovered", map[string]interface{}{
		"method":      method,
		"panic":       fmt.Sprintf("%v", p),
		"stack_trace": string(debug.Stack()),
		"type":        kind,
	})
}

// RecoveryInterceptor turns handler panics into errors built by onPanic.
// A nil onPanic uses DefaultPanicRecoveryHandler.
func RecoveryInterceptor(logger logging.Logger, onPanic PanicRecoveryHandler) grpc.UnaryServerInterceptor {
	if onPanic == nil {
		onPanic = DefaultPanicRecoveryHandler()
	}

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, info.FullMethod, r, "grpc_panic")
				resp, err = nil, onPanic(r)
			}
		}()

		return handler(ctx, req)
	}
}

// StreamRecoveryInterceptor is the streaming counterpart of RecoveryInterceptor
func StreamRecoveryInterceptor(logger logging.Logger, onPanic PanicRecoveryHandler) grpc.StreamServerInterceptor {
	if onPanic == nil {
		onPanic = DefaultPanicRecoveryHandler()
	}

	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logPanic(logger, info.FullMethod, r, "grpc_stream_panic")
				err = onPanic(r)
			}
		}()

		return handler(srv, ss)
	}
}
