// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNotFound        = "NOT_FOUND"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeNotImplemented  = "NOT_IMPLEMENTED"
	CodeInternal        = "INTERNAL"
)

var statusByCode = map[string]int{
	CodeInvalidArgument: http.StatusBadRequest,
	CodeUnauthenticated: http.StatusUnauthorized,
	CodeUnauthorized:    http.StatusForbidden,
	CodeNotFound:        http.StatusNotFound,
	CodeTooManyRequests: http.StatusTooManyRequests,
	CodeNotImplemented:  http.StatusNotImplemented,
	CodeInternal:        http.StatusInternalServerError,
}

// AppError carries a taxonomy code next to a client-safe message.
type AppError struct {
	code    string
	message string
	err     error
}

func (e *AppError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s", e.message, e.err.Error())
	}
	return e.message
}

func (e *AppError) Code() string    { return e.code }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Unwrap() error   { return e.err }

// HTTPStatus maps the error code to a response status.
func (e *AppError) HTTPStatus() int {
	if s, ok := statusByCode[e.code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(code, message string, err error) *AppError {
	return &AppError{code: code, message: message, err: err}
}

func Validation(message string) *AppError { return New(CodeInvalidArgument, message, nil) }
func Auth(message string) *AppError       { return New(CodeUnauthenticated, message, nil) }
func Forbidden(message string) *AppError  { return New(CodeUnauthorized, message, nil) }
func NotFound(message string) *AppError   { return New(CodeNotFound, message, nil) }

func Internal(message string, err error) *AppError {
	return New(CodeInternal, message, err)
}

// As extracts an *AppError from the chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.code == code
}
