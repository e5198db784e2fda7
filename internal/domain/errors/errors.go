// Package errors provides domain-specific errors for the ttsplit application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrInvalidLimit    = errors.New("max size must be positive")
	ErrUnknownEncoding = errors.New("unknown token encoding")
	ErrUnknownUnit     = errors.New("unknown counting unit")
	ErrModelNotFound   = errors.New("model limit not found")
	ErrDuplicateModel  = errors.New("duplicate model identifier")
	ErrEmptyModelID    = errors.New("model ID required")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeConfiguration ErrorCode = "CONFIG"
	CodeStorage       ErrorCode = "STORAGE"
)

// Error wraps a sentinel cause with a code, a message, and optional context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
func WithContext(err *Error, key string, value any) *Error {
	if err.Context == nil {
		err.Context = make(map[string]any)
	}
	err.Context[key] = value
	return err
}

// InvalidLimit reports a non-positive max size.
func InvalidLimit(maxSize int) *Error {
	return WithContext(
		NewError(CodeValidation, fmt.Sprintf("invalid limit %d", maxSize), ErrInvalidLimit),
		"max_size", maxSize,
	)
}

// UnknownEncoding reports a token encoding with no known tokenizer.
func UnknownEncoding(name string, cause error) *Error {
	msg := fmt.Sprintf("encoding %q", name)
	if cause != nil {
		msg = fmt.Sprintf("encoding %q (%v)", name, cause)
	}
	return WithContext(NewError(CodeConfiguration, msg, ErrUnknownEncoding), "encoding", name)
}

// ModelNotFound reports a lookup miss in the model limit registry.
func ModelNotFound(id string) *Error {
	return WithContext(NewError(CodeNotFound, fmt.Sprintf("model %q", id), ErrModelNotFound), "model_id", id)
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
