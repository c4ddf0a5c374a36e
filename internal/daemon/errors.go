package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

// APIError represents a structured API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string) *APIError {
	return &APIError{Code: code, Message: message}
}

// WithDetails adds details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

func ErrBadRequest(message string) *APIError {
	return NewAPIError("BAD_REQUEST", message)
}

func ErrNotFound(message string) *APIError {
	return NewAPIError("NOT_FOUND", message)
}

func ErrConflict(message string) *APIError {
	return NewAPIError("CONFLICT", message)
}

func ErrRateLimited() *APIError {
	return NewAPIError("RATE_LIMITED", "too many requests")
}

func ErrUnavailable(message string) *APIError {
	return NewAPIError("UNAVAILABLE", message)
}

func ErrInternal() *APIError {
	return NewAPIError("INTERNAL_ERROR", "internal server error")
}

// ErrorResponse is the JSON structure for error responses
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, apiErr *APIError) {
	writeJSON(w, status, ErrorResponse{Error: apiErr})
}

// writeServiceError maps an engine error onto a status code. Server-side
// failures are logged with the cause and answered without it.
func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status, apiErr := classify(err)
	if status >= 500 {
		slog.Error(action+" failed",
			"correlation_id", GetCorrelationID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeError(w, status, apiErr)
}

func classify(err error) (int, *APIError) {
	switch {
	case errors.Is(err, domain.ErrPlayerAlreadyExists):
		return http.StatusConflict, ErrConflict(err.Error())
	case domain.IsNotFound(err):
		return http.StatusNotFound, ErrNotFound(err.Error())
	case domain.IsInvalidInput(err):
		return http.StatusBadRequest, ErrBadRequest(err.Error())
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusServiceUnavailable, ErrUnavailable("storage temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ErrUnavailable("request timed out")
	default:
		return http.StatusInternalServerError, ErrInternal()
	}
}
