package profiling

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCircuitOpen is returned while the breaker holds requests off a
	// failing API.
	ErrCircuitOpen = errors.New("profiling api circuit open")

	// ErrNotFound means the lookup returned no record. Recoverable; the
	// caller may offer to create a new one.
	ErrNotFound = errors.New("profile not found")

	// ErrForbidden means the record exists but is pending admin approval.
	ErrForbidden = errors.New("profile pending admin approval")

	// ErrUnauthorized means the credentials or bearer token were rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError carries the server-supplied failure message for any other non-2xx
// response. Message is surfaced to the user verbatim when present.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("profiling api returned status %d", e.Status)
}

func isTaxonomy(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized)
}

// statusError maps a non-2xx response onto the error taxonomy, preserving the
// server's {"error": ...} message where one was sent.
func statusError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	switch status {
	case http.StatusNotFound:
		if payload.Error != "" {
			return fmt.Errorf("%s: %w", payload.Error, ErrNotFound)
		}
		return ErrNotFound
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusUnauthorized:
		if payload.Error != "" {
			return fmt.Errorf("%s: %w", payload.Error, ErrUnauthorized)
		}
		return ErrUnauthorized
	default:
		return &APIError{Status: status, Message: payload.Error}
	}
}
