package apierr

import (
	"errors"
	"fmt"
)

var (
	ErrNoCredential      = errors.New("no access credential")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrMalformedResponse = errors.New("malformed response")
)

// ServerError is an application-level failure reported by the API, either as
// success=false in the envelope or a non-2xx status.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Message)
}

// UserMessage returns the server-provided message when one exists, otherwise
// the given fallback. Screens use this for login/register/avatar failures.
func UserMessage(err error, fallback string) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
