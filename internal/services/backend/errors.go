package backend

import (
	"errors"
	"fmt"
	"strings"

	"salesmind/internal/services"
)

// ErrMissingField reports a successful response that lacks the expected field.
var ErrMissingField = fmt.Errorf("%w: response missing expected field", services.ErrBackend)

// NetworkError wraps a transport failure or timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == services.ErrNetwork }

// StatusError reports a non-2xx response or an explicit error payload.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = "no detail"
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: backend error: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: backend http %d: %s", e.Op, e.StatusCode, msg)
}

func (e *StatusError) Is(target error) bool { return target == services.ErrBackend }

// UserMessage extracts the backend's own error text when err carries one.
func UserMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return strings.TrimSpace(statusErr.Message)
	}
	return ""
}
