package port

import (
	"errors"
	"fmt"
)

// Sentinel errors used across ports.
var (
	ErrAuthorizationMismatch  = errors.New("authorization state mismatch")
	ErrTokenExchangeFailed    = errors.New("token exchange failed")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrRemoteQueryFailed      = errors.New("remote query failed")
	ErrCorruptLogStore        = errors.New("corrupt log store")
	ErrCheckNotFound          = errors.New("check not found")
	ErrRemediationUnsupported = errors.New("remediation not supported")
)

// TokenExchangeError carries the token endpoint's rejection.
type TokenExchangeError struct {
	StatusCode int
	Body       string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed (%d): %s", e.StatusCode, e.Body)
}

func (e *TokenExchangeError) Unwrap() error { return ErrTokenExchangeFailed }

// RemoteQueryError carries the management API's error. Message is the
// payload's message field; Body is the payload verbatim.
type RemoteQueryError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *RemoteQueryError) Error() string {
	return fmt.Sprintf("remote query failed (%d): %s", e.StatusCode, e.Message)
}

func (e *RemoteQueryError) Unwrap() error { return ErrRemoteQueryFailed }

// InvalidArgument wraps ErrInvalidArgument with a description of what was wrong.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
