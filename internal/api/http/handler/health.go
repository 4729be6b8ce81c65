package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dtroode/encuentro-server/internal/api/http/response"
	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
)

const healthTimeout = 2 * time.Second

type healthResponse struct {
	Status string `json:"status"`
}

// Health reports whether the server and its store are reachable.
type Health struct {
	store  model.Pinger
	logger *logger.Logger
}

// NewHealth creates a health handler. store may be nil.
func NewHealth(store model.Pinger, logger *logger.Logger) *Health {
	return &Health{store: store, logger: logger}
}

func (h *Health) Check(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("Health handler: store unreachable", "error", err)
			response.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}

	response.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
