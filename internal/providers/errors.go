package providers

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindMissingCredential  ErrorKind = "missing_credential"
	KindInvalidCredential  ErrorKind = "invalid_credential"
	KindRateLimited        ErrorKind = "rate_limited"
	KindBackendUnreachable ErrorKind = "backend_unreachable"
	KindUpstream           ErrorKind = "upstream_error"
)

// Error is a gateway failure whose message is the text shown to the user.
type Error struct {
	Kind     ErrorKind
	Provider Name
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so sentinels like ErrRateLimited work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Provider == "" || t.Provider == e.Provider)
}

var (
	ErrMissingCredential  = &Error{Kind: KindMissingCredential}
	ErrInvalidCredential  = &Error{Kind: KindInvalidCredential}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrBackendUnreachable = &Error{Kind: KindBackendUnreachable}
	ErrUpstream           = &Error{Kind: KindUpstream}
)

// KindOf returns the kind of a gateway error, or "" for anything else.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

func connectionError(provider Name, err error) *Error {
	return &Error{
		Kind:     KindBackendUnreachable,
		Provider: provider,
		Message:  "Connection error: " + err.Error(),
		Err:      err,
	}
}

func statusError(provider Name, status int, label string) *Error {
	switch {
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindInvalidCredential, Provider: provider, Status: status, Message: "Invalid API key."}
	case status == http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, Provider: provider, Status: status, Message: fmt.Sprintf("%s (%d)", label, status)}
	default:
		return &Error{Kind: KindUpstream, Provider: provider, Status: status, Message: fmt.Sprintf("%s (%d)", label, status)}
	}
}
