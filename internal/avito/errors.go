package avito

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed platform operation. The kind is decided by
// the request executor after its retry budget is exhausted and is never
// rewritten by callers further up.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication_failure"
	KindClient         ErrorKind = "client_error"
	KindServer         ErrorKind = "server_error"
	KindRateLimited    ErrorKind = "rate_limited"
	KindTransport      ErrorKind = "transport_failure"
	KindValidation     ErrorKind = "validation_error"
)

// Error is the failure type returned by every client operation. Status and
// Body carry the last observed HTTP response for diagnostics; both are zero
// for transport and validation failures.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("avito: %s: %s: status=%d body=%s", e.Op, e.Kind, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("avito: %s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("avito: %s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" if err is not a platform
// error.
func KindOf(err error) ErrorKind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func IsAuthenticationFailure(err error) bool { return KindOf(err) == KindAuthentication }
func IsClientError(err error) bool           { return KindOf(err) == KindClient }
func IsServerError(err error) bool           { return KindOf(err) == KindServer }
func IsRateLimited(err error) bool           { return KindOf(err) == KindRateLimited }
func IsTransportFailure(err error) bool      { return KindOf(err) == KindTransport }
func IsValidationError(err error) bool       { return KindOf(err) == KindValidation }

func validationErr(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: fmt.Errorf(format, args...)}
}
