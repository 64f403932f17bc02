package api

import (
	"errors"
	"fmt"
)

// ErrBackendUnavailable marks transport-level failures: the request never
// produced a response from the backend.
var ErrBackendUnavailable = errors.New("backend unavailable")

// ErrUnauthorized marks a rejected authorized request. Callers must treat it
// as session invalidation.
var ErrUnauthorized = errors.New("unauthorized")

const genericFailureMessage = "request failed"

// Error is an application-level failure: the backend answered, but the
// response envelope did not carry a success status.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	if e.Message == "" {
		return genericFailureMessage
	}
	return e.Message
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
}
