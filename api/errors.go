package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront/internal/errors"
)

// Error is a non-2xx response from the storefront API.
type Error struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Message is the server's "message" field, empty when the body carried none.
	Message string
	// Body is the raw response body, kept for logging.
	Body string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *Error) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *Error) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// parseError reads {"message": "..."} or {"error": "..."} bodies, falling back to no message.
func parseError(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode, Body: string(body)}

	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(payload.Message)
	if apiErr.Message == "" && len(payload.Error) > 0 {
		var msg string
		if json.Unmarshal(payload.Error, &msg) == nil {
			apiErr.Message = strings.TrimSpace(msg)
		}
	}
	return apiErr
}

// AsError returns the API error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// Message returns the text to show a user for err: the server's message when there is one,
// otherwise fallback.
func Message(err error, fallback string) string {
	if apiErr, ok := AsError(err); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
