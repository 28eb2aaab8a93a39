package api

import (
	"errors"
	"fmt"
)

// ErrUnauthorized marks an authentication rejection (expired or invalid
// token). Callers clear the stored session and return to login when they
// see it; it is deliberately distinct from generic fetch failure.
var ErrUnauthorized = errors.New("api: unauthorized")

// ErrConflict marks a uniqueness rejection during registration
// (username or email already taken).
var ErrConflict = errors.New("api: conflict")

// StatusError carries a non-success HTTP status and the server's message.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: server returned status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// Unwrap maps auth and conflict statuses onto their sentinels so callers
// can use errors.Is without inspecting status codes.
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case 401, 422:
		return ErrUnauthorized
	case 409:
		return ErrConflict
	default:
		return nil
	}
}
