// Package response writes JSON bodies for the REST API.
package response

import (
	"encoding/json"
	"net/http"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
)

// ErrorBody is the body of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes err using its HTTP code and client-safe message.
func Error(w http.ResponseWriter, err *apiErrors.APIError) {
	JSON(w, err.HTTPCode, ErrorBody{Error: err.Message})
}
