package router

import (
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/encuentro-server/internal/api/grpc/handler"
	"github.com/dtroode/encuentro-server/internal/api/grpc/middleware"
	"github.com/dtroode/encuentro-server/internal/logger"
)

// Router assembles the gRPC server.
type Router struct {
	health *handler.Health
	logger *logger.Logger
}

// New creates new gRPC Router instance.
func New(health *handler.Health, logger *logger.Logger) *Router {
	return &Router{
		health: health,
		logger: logger,
	}
}

// Register builds the gRPC server with logging and recovery interceptors
// and registers the health and reflection services.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recovery := middleware.NewRecovery(r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.Unary(),
			recovery.Unary(),
		),
		grpc.ChainStreamInterceptor(
			logging.Stream(),
			recovery.Stream(),
		),
	)

	healthpb.RegisterHealthServer(s, r.health.Server())
	reflection.Register(s)

	return s
}
