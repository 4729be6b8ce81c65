package handler

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
)

// AuthServiceName is the service name reported by the health endpoint.
const AuthServiceName = "encuentro.Auth"

const pingTimeout = 2 * time.Second

// Health publishes the store reachability through the standard gRPC health service.
type Health struct {
	server *health.Server
	store  model.Pinger
	logger *logger.Logger
}

// NewHealth creates a health handler. Until the first probe every service reports NOT_SERVING.
func NewHealth(store model.Pinger, logger *logger.Logger) *Health {
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(AuthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Health{server: srv, store: store, logger: logger}
}

// Server returns the gRPC health service implementation.
func (h *Health) Server() healthpb.HealthServer {
	return h.server
}

// Probe pings the store once and updates the serving status.
func (h *Health) Probe(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING

	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := h.store.Ping(pingCtx)
		cancel()

		if err != nil {
			h.logger.Warn("Health handler: store unreachable", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(AuthServiceName, status)
}

// Watch probes every interval until ctx is canceled, then marks all services as not serving.
func (h *Health) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
