// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindUpstream
)

// Stable codes returned to clients in the response envelope.
const (
	CodeValidation       = 40001
	CodeInvalidBody      = 40002
	CodeUnauthenticated  = 40101
	CodeInvalidToken     = 40102
	CodeInvalidSignature = 40103
	CodeForbidden        = 40301
	CodeNotFound         = 40401
	CodeConflict         = 40901
	CodeSoldOut          = 40902
	CodeInvalidState     = 40903
	CodeAlreadyPaid      = 40904
	CodeLimitExceeded    = 40905
	CodeInternal         = 50001
	CodeUpstream         = 50002
)

type Error struct {
	Kind    Kind
	Code    int
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to the response status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg}
}

func Conflict(code int, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func Unauthorized(code int, msg string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: msg}
}

func Upstream(err error, msg string) *Error {
	return &Error{Kind: KindUpstream, Code: CodeUpstream, Message: msg, Err: err}
}

func Internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: msg, Err: err}
}

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

func InvalidBody(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidBody, Message: msg}
}
