package middleware

import (
	"context"
	"log/slog"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"google.golang.org/grpc"

	"github.com/dtroode/encuentro-server/internal/logger"
)

// Logging logs finished gRPC calls through the application logger.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Unary returns the unary interceptor.
func (l *Logging) Unary() grpc.UnaryServerInterceptor {
	return logging.UnaryServerInterceptor(l.interceptorLogger(), logging.WithLogOnEvents(logging.FinishCall))
}

// Stream returns the stream interceptor.
func (l *Logging) Stream() grpc.StreamServerInterceptor {
	return logging.StreamServerInterceptor(l.interceptorLogger(), logging.WithLogOnEvents(logging.FinishCall))
}

func (l *Logging) interceptorLogger() logging.Logger {
	return logging.LoggerFunc(func(ctx context.Context, lvl logging.Level, msg string, fields ...any) {
		l.logger.Log(ctx, slog.Level(lvl), "gRPC: "+msg, fields...)
	})
}
