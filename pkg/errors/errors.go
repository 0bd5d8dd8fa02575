package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`

	// RollbackFailed is set when the transaction that produced Err could not
	// be rolled back either. Err is still the error that caused the rollback.
	RollbackFailed bool `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error code to a transport status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrConflict
)

// RollbackError is returned by a transaction runner when the work failed and
// the rollback failed as well.
type RollbackError struct {
	Err         error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("%v (rollback failed: %v)", e.Err, e.RollbackErr)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	var rbErr *RollbackError
	return &AppError{
		Code:           ErrInternal,
		Message:        "internal server error",
		Err:            err,
		RollbackFailed: stderrors.As(err, &rbErr),
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
		Err:     err,
	}
}

func Conflict(message string, err error) *AppError {
	return &AppError{
		Code:    ErrConflict,
		Message: message,
		Err:     err,
	}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrInternal when there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Wrap passes AppErrors through and turns anything else into an internal
// error. A failed rollback is recorded on the returned AppError.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var rbErr *RollbackError
	rollbackFailed := stderrors.As(err, &rbErr)

	appErr, ok := As(err)
	if !ok {
		return NewInternal(err)
	}
	if !rollbackFailed {
		return err
	}
	flagged := *appErr
	flagged.RollbackFailed = true
	return &flagged
}

// RollbackFailed reports whether err records a failed rollback.
func RollbackFailed(err error) bool {
	if appErr, ok := As(err); ok && appErr.RollbackFailed {
		return true
	}
	var rbErr *RollbackError
	return stderrors.As(err, &rbErr)
}
