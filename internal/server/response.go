package server

import (
	"encoding/json"
	"net/http"
)

// Error codes used in JSON error bodies.
const (
	errCodeInvalidRequest  = "invalid_request"
	errCodeNotFound        = "not_found"
	errCodeUnsupported     = "unsupported_integration"
	errCodeInProgress      = "connection_in_progress"
	errCodeInvalidIdentity = "invalid_identity"
	errCodeServerError     = "server_error"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}
