package xerr

import (
	"errors"
	"fmt"
)

// CodeError carries a transport-level code alongside the message.
type CodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *CodeError) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.Code, e.Message)
}

// New creates a new CodeError.
func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Message: msg}
}

// Common codes. NotFound/Unsupported/Validation are client errors,
// Backend/Timeout map to server-side failures.
const (
	OK                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Unsupported         = 422
	InternalServerError = 500
	Timeout             = 504
)

var (
	ErrSuccess     = New(OK, "Success")
	ErrServerError = New(InternalServerError, "internal server error")
	ErrParam       = New(BadRequest, "invalid request parameters")
)

// NewNotFound reports a missing document, embedding set, index or collection.
func NewNotFound(format string, args ...any) *CodeError {
	return New(NotFound, fmt.Sprintf(format, args...))
}

// NewUnsupported reports an unknown provider or vector-db kind.
func NewUnsupported(format string, args ...any) *CodeError {
	return New(Unsupported, fmt.Sprintf(format, args...))
}

// NewValidation reports rejected input, e.g. an empty embedding set or a
// dimension mismatch at build time.
func NewValidation(format string, args ...any) *CodeError {
	return New(BadRequest, fmt.Sprintf(format, args...))
}

// NewBackend reports an underlying vector-store or library failure.
func NewBackend(format string, args ...any) *CodeError {
	return New(InternalServerError, fmt.Sprintf(format, args...))
}

// NewTimeout reports remote backend connectivity timeouts.
func NewTimeout(format string, args ...any) *CodeError {
	return New(Timeout, fmt.Sprintf(format, args...))
}

func hasCode(err error, code int) bool {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func IsNotFound(err error) bool    { return hasCode(err, NotFound) }
func IsUnsupported(err error) bool { return hasCode(err, Unsupported) }
func IsValidation(err error) bool  { return hasCode(err, BadRequest) }
func IsBackend(err error) bool     { return hasCode(err, InternalServerError) }
func IsTimeout(err error) bool     { return hasCode(err, Timeout) }
