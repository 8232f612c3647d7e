package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var ErrNoSession = errors.New("no active session")

type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Error is a failed call to the backend. Status is 0 when no response was
// received at all.
type Error struct {
	Status  int
	Message string
	Err     error

	// decode is set when a 2xx response arrived but its body did not decode.
	decode bool
}

func newError(err error, status int, body errorBody) *Error {
	apiErr := &Error{Status: status, Message: body.Message, Err: err}
	if apiErr.Message == "" {
		apiErr.Message = body.Error
	}
	if status >= 200 && status < 300 {
		apiErr.Status = 0
		apiErr.decode = true
	}
	return apiErr
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("api: status %d", e.Status)
	default:
		return fmt.Sprintf("api: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the server-provided message of err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Retryable reports whether a read that failed with err is worth retrying:
// transport failures and 5xx, but not client errors, undecodable bodies or
// cancellation.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrNoSession) {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.decode {
		return false
	}
	status := StatusOf(err)
	if status == 0 {
		return true
	}
	return status >= http.StatusInternalServerError && status != http.StatusNotImplemented
}
