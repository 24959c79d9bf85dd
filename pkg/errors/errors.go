package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeThrottled   ErrorType = "throttled"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeAPI         ErrorType = "api"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a failed Graph API call. Code and Subcode carry the
// Graph error object fields when the API returned one.
type Error struct {
	Type       ErrorType
	Message    string
	Code       int
	Subcode    int
	StatusCode int
	TraceID    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error of the given type
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates an Error of the given type around cause
func Wrap(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Err: cause}
}

// As returns the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// TypeOf returns the type of the first *Error in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	if e, ok := As(err); ok {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Graph error codes that carry a fixed meaning regardless of throttle policy.
const (
	codeOAuthException   = 190
	codeSessionExpired   = 102
	codePermissionDenied = 10
	codeInvalidParameter = 100
	subcodeUnknownObject = 33
)

// FromGraph builds an Error from a Graph error object and the HTTP status.
// Throttling is not decided here; the retry governor owns that policy.
func FromGraph(code, subcode, status int, message, traceID string) *Error {
	t := ErrorTypeAPI
	switch {
	case code == codeOAuthException || code == codeSessionExpired || code == codePermissionDenied:
		t = ErrorTypeAuth
	case code == codeInvalidParameter && subcode == subcodeUnknownObject:
		t = ErrorTypeNotFound
	case status >= 500:
		t = ErrorTypeServerError
	}
	return &Error{
		Type:       t,
		Message:    message,
		Code:       code,
		Subcode:    subcode,
		StatusCode: status,
		TraceID:    traceID,
	}
}

// FromStatus builds an Error for a non-2xx response without a Graph error body
func FromStatus(status int, message string) *Error {
	t := ErrorTypeAPI
	switch {
	case status == 401 || status == 403:
		t = ErrorTypeAuth
	case status == 404:
		t = ErrorTypeNotFound
	case status >= 500:
		t = ErrorTypeServerError
	}
	return &Error{Type: t, Message: message, StatusCode: status}
}
