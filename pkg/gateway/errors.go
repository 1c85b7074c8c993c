package gateway

import (
	"fmt"
	"net/http"

	"github.com/locvowork/tasktracker/internal/domain"
)

// Error is a non-2xx response from the task list service.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Message    string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("task api error: %s %s: %s", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is lets errors.Is(err, domain.ErrNotFound) match a 404 response.
func (e *Error) Is(target error) bool {
	return target == domain.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Temporary reports whether the server side failed and a retry may succeed.
func (e *Error) Temporary() bool {
	return e.StatusCode >= 500
}

// TransportError wraps a failure to reach the service or read its reply.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("task api transport error: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
