// Package errors provides the failure taxonomy shared by the transport
// pipeline, the session manager and the collection stores.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindServerError        Kind = "server_error"
	KindNetworkUnavailable Kind = "network_unavailable"
	KindValidationFailed   Kind = "validation_failed"
	KindLocalPrecondition  Kind = "local_precondition"
	KindRequestFailed      Kind = "request_failed"
	KindUnknown            Kind = "unknown"
)

// Sentinel errors, one per kind. An *APIError matches the sentinel of its kind
// under errors.Is.
var (
	ErrUnauthorized       = errors.New("unauthorized, please log in again")
	ErrForbidden          = errors.New("insufficient permissions for this operation")
	ErrNotFound           = errors.New("requested resource does not exist")
	ErrServerError        = errors.New("internal server error, please try again later")
	ErrNetworkUnavailable = errors.New("network unavailable, check your connection")
	ErrValidationFailed   = errors.New("input validation failed")
	ErrLocalPrecondition  = errors.New("required fields are missing")
	ErrRequestFailed      = errors.New("request failed")
)

var kindSentinels = map[Kind]error{
	KindUnauthorized:       ErrUnauthorized,
	KindForbidden:          ErrForbidden,
	KindNotFound:           ErrNotFound,
	KindServerError:        ErrServerError,
	KindNetworkUnavailable: ErrNetworkUnavailable,
	KindValidationFailed:   ErrValidationFailed,
	KindLocalPrecondition:  ErrLocalPrecondition,
	KindRequestFailed:      ErrRequestFailed,
}

// FieldError is one entry of a remote validation failure.
type FieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// Path joins the location segments with dots, e.g. "body.email".
func (f FieldError) Path() string {
	parts := make([]string, len(f.Loc))
	for i, seg := range f.Loc {
		parts[i] = fmt.Sprint(seg)
	}
	return strings.Join(parts, ".")
}

func (f FieldError) String() string {
	if len(f.Loc) == 0 {
		return f.Msg
	}
	return f.Path() + ": " + f.Msg
}

// APIError is a classified failure. Message is the human readable text shown
// to the user; Err keeps the original cause.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Fields     []FieldError
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *APIError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *APIError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// New creates a classified error with the default message for kind.
func New(kind Kind, statusCode int) *APIError {
	msg := string(kind)
	if s, ok := kindSentinels[kind]; ok {
		msg = s.Error()
	}
	return &APIError{Kind: kind, StatusCode: statusCode, Message: msg}
}

// Precondition returns a LocalPrecondition failure raised before any request
// is issued.
func Precondition(msg string) *APIError {
	return &APIError{Kind: KindLocalPrecondition, Message: msg}
}

// Validation returns a ValidationFailed error listing every field failure.
func Validation(statusCode int, fields []FieldError) *APIError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.String())
	}
	msg := ErrValidationFailed.Error()
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	return &APIError{Kind: KindValidationFailed, StatusCode: statusCode, Message: msg, Fields: fields}
}

// KindOf returns the kind of err, or KindUnknown when err was never classified.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Message returns the user facing text for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// IsRetryable reports whether a safe request that failed with err may be
// issued again. Only transport failures and 5xx responses qualify.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetworkUnavailable, KindServerError:
		return true
	default:
		return false
	}
}
