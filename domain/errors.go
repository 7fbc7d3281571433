package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	ErrCodeInvalid  ErrorCode = "INVALID"
	ErrCodeConflict ErrorCode = "CONFLICT"
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any domain error carrying the same code and message, so wrapped
// copies of the sentinels below still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalidf builds an INVALID error with a formatted message.
func Invalidf(format string, args ...any) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "task not found")
	ErrTaskExists         = NewError(ErrCodeConflict, "task already exists")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrMalformedRecord    = NewError(ErrCodeInvalid, "malformed task record")
	ErrMethodNotAllowed   = NewError(ErrCodeInvalid, "Method not allowed")
	ErrStorageUnavailable = NewError(ErrCodeInternal, "storage unavailable")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// Operation names a remote collection call.
type Operation string

const (
	OpFetch        Operation = "fetch"
	OpCreate       Operation = "create"
	OpUpdate       Operation = "update"
	OpDelete       Operation = "delete"
	OpCommentFetch Operation = "comment_fetch"
)

// OperationError reports a failed call against the task collection.
type OperationError struct {
	Op         Operation
	TaskID     string
	StatusCode int
	Err        error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Op)
	if e.TaskID != "" {
		msg = fmt.Sprintf("%s %s failed", e.Op, e.TaskID)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the collection answered that the target does not exist.
func (e *OperationError) IsNotFound() bool {
	return e != nil && (e.StatusCode == http.StatusNotFound || errors.Is(e.Err, ErrTaskNotFound))
}

// IsOperation reports whether err is an OperationError for op.
func IsOperation(err error, op Operation) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Op == op
	}
	return false
}

// IsNotFound reports whether err signals a missing task, either as a domain
// error or as a remote not-found answer.
func IsNotFound(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.IsNotFound() {
		return true
	}
	return IsDomainError(err, ErrCodeNotFound)
}
