package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse: the endpoint answered 200 with a body that is not
	// JSON or does not fit the requested user model.
	ErrMalformedResponse = errors.New("identity: malformed response")
	// ErrAuthenticationFailure: the endpoint answered with a non-200 status.
	ErrAuthenticationFailure = errors.New("identity: authentication failure")
	// ErrIdentityFetch: the exchange ended before a status was observed.
	ErrIdentityFetch = errors.New("identity: could not fetch user")
)

const (
	ReasonExpectedJSON   = "expected JSON"
	ReasonSchemaMismatch = "schema mismatch"
	ReasonTooLarge       = "response too large"
)

type MalformedResponseError struct {
	Endpoint string
	Reason   string
	Payload  string // truncated body
	Cause    error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("identity: malformed answer from %s, %s", e.Endpoint, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error { return e.Cause }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

type AuthenticationError struct {
	Endpoint   string
	StatusCode int
	Cause      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("identity: could not fetch user from %s (status %d). "+
		"Maybe your token is invalid? Or you forgot to add the `openid` scope?", e.Endpoint, e.StatusCode)
}

func (e *AuthenticationError) Unwrap() error { return e.Cause }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthenticationFailure }

// StatusError is the transport-level cause attached to an AuthenticationError.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string { return "unexpected status " + e.Status }

type FetchError struct {
	Endpoint string
	Cause    error
}

func (e *FetchError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("identity: could not fetch user from %s", e.Endpoint)
	}
	return fmt.Sprintf("identity: could not fetch user from %s: %v", e.Endpoint, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

func (e *FetchError) Is(target error) bool { return target == ErrIdentityFetch }
