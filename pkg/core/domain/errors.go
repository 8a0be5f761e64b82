package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNoSession        = errors.New("not signed in")
	ErrSessionEnded     = errors.New("session ended, sign in again")
	ErrLinkNotFound     = errors.New("link not found")
	ErrMutationInFlight = errors.New("another change to this link is still being saved")
	ErrRefreshBlocked   = errors.New("cannot refresh while changes are being saved")
	ErrRefreshInFlight  = errors.New("links are being reloaded")
)

// NetworkError is a transport failure: the server was unreachable or the
// call timed out. Callers may retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError means the server rejected the credentials or the session token.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication rejected"
	}
	return e.Message
}

// ValidationError carries a message meant to be shown to the user as is,
// whether it came from the server or from local input checks.
type ValidationError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// MalformedResponseError means a success response did not match the
// expected shape.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// StatusError is any other non-success status.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Message)
}

// IsAuth reports whether err is, or wraps, an *AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNetwork reports whether err is, or wraps, a *NetworkError.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// UserMessage maps an error to text suitable for display. Server and
// validation messages are passed through verbatim; integrity failures are
// reported generically.
func UserMessage(err error) string {
	var (
		valErr  *ValidationError
		authErr *AuthError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &valErr):
		return valErr.Message
	case errors.As(err, &authErr):
		return authErr.Error()
	case IsNetwork(err):
		return "Could not reach the server. Please try again."
	case errors.Is(err, ErrMutationInFlight), errors.Is(err, ErrRefreshBlocked),
		errors.Is(err, ErrRefreshInFlight), errors.Is(err, ErrLinkNotFound),
		errors.Is(err, ErrNoSession), errors.Is(err, ErrSessionEnded):
		return err.Error()
	default:
		return "Something went wrong."
	}
}
