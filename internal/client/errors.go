package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/brainarcade/internal/domain"
)

// HTTPError is a non-2xx response from the daemon
type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("daemon: %s (%d %s)", msg, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("daemon: %s (%d)", msg, e.StatusCode)
}

// Unwrap maps the response back onto the domain sentinels so callers
// can use domain.IsNotFound and friends against a remote engine.
func (e *HTTPError) Unwrap() error {
	switch e.Code {
	case "NOT_FOUND":
		return domain.ErrNotFound
	case "BAD_REQUEST":
		return domain.ErrInvalidInput
	case "CONFLICT":
		return domain.ErrPlayerAlreadyExists
	case "UNAVAILABLE":
		return domain.ErrStorageFailure
	}
	switch e.StatusCode {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	case http.StatusConflict:
		return domain.ErrPlayerAlreadyExists
	case http.StatusServiceUnavailable:
		return domain.ErrStorageFailure
	}
	return nil
}

// UnreachableError means no HTTP response came back at all
type UnreachableError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("daemon not reachable at %s: %v", e.BaseURL, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

func parseHTTPError(status int, raw []byte) error {
	herr := &HTTPError{StatusCode: status, Body: string(raw)}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		herr.Code = envelope.Error.Code
		herr.Message = envelope.Error.Message
	}
	return herr
}
