package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches 401 responses.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrForbidden matches 403 responses.
	ErrForbidden = errors.New("api: forbidden")
	// ErrNotFound matches 404 responses.
	ErrNotFound = errors.New("api: not found")
	// ErrNoActiveChurch matches the 412 the server returns for tenant scoped
	// requests made before any church was selected, and its explicit 404
	// answer to GET /v1/churches/active.
	ErrNoActiveChurch = errors.New("api: no active church")
	// ErrChurchMismatch matches the 409 the server returns when X-Church-ID
	// names a church other than the session's active church.
	ErrChurchMismatch = errors.New("api: active church mismatch")
)

// Error is a non-2xx response from the church API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Is maps the status code onto the package sentinels so callers can use
// errors.Is without inspecting the status.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrNoActiveChurch:
		return e.Status == http.StatusPreconditionFailed ||
			(e.Status == http.StatusNotFound && e.Message == "no active church")
	case ErrChurchMismatch:
		return e.Status == http.StatusConflict && e.Message == "active church mismatch"
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
