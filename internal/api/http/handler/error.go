package handler

import (
	"net/http"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
	"github.com/dtroode/encuentro-server/internal/api/http/response"
)

func (h *Auth) handleError(w http.ResponseWriter, operation string, err error) {
	if apiErr, ok := apiErrors.As(err); ok && apiErr.Kind != apiErrors.KindInternal {
		h.logger.Debug("Auth handler: request rejected",
			"operation", operation,
			"kind", apiErr.Kind,
			"error", apiErr.Message)
		response.Error(w, apiErr)
		return
	}

	h.logger.Error("Auth handler: request failed",
		"operation", operation,
		"error", err.Error())
	response.Error(w, apiErrors.NewErrInternalServerError(err))
}
