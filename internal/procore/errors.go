package procore

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures returned by the token manager and API client.
type ErrorKind int

const (
	// KindMissingCredentials means the client id or secret is not configured
	KindMissingCredentials ErrorKind = iota + 1
	// KindAuth means the token endpoint rejected the credentials or grant
	KindAuth
	// KindInvalidResponse means a success response carried no usable token
	KindInvalidResponse
	// KindTransport means the request never produced an HTTP response
	KindTransport
	// KindHTTP means the REST API answered with a status code >= 400
	KindHTTP
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredentials:
		return "missing_credentials"
	case KindAuth:
		return "auth_error"
	case KindInvalidResponse:
		return "invalid_response"
	case KindTransport:
		return "transport_error"
	case KindHTTP:
		return "http_error"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced to callers of this package.
type Error struct {
	Kind       ErrorKind
	StatusCode int // set for KindHTTP only
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return 0
}

func newMissingCredentialsError() *Error {
	return &Error{Kind: KindMissingCredentials, Message: "Client ID and Client Secret are required"}
}

func newAuthError(message string) *Error {
	return &Error{Kind: KindAuth, Message: message}
}

func newInvalidResponseError() *Error {
	return &Error{Kind: KindInvalidResponse, Message: "Invalid response from Procore API"}
}

func newTransportError(message string, cause error) *Error {
	return &Error{Kind: KindTransport, Message: message, Cause: cause}
}

func newHTTPError(statusCode int, message string) *Error {
	return &Error{
		Kind:       KindHTTP,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("API Error (%d): %s", statusCode, message),
	}
}

// KindName returns the kind as a metrics label
func (e *Error) KindName() string {
	return e.Kind.String()
}
