// Package errors provides the unified error type and factory functions for
// kbutil. Every layer (domain, application, infrastructure, interfaces) uses
// AppError as the single carrier for structured error information so that CLI
// output and logs stay consistent across subsystems.
package errors

import (
	"errors"
	"fmt"
)

// AppError is the single structured error type used throughout kbutil. It
// satisfies the standard error interface and supports Go 1.13+ error wrapping
// so that errors.Is / errors.As / errors.Unwrap work transparently.
//
// Usage:
//
//	return errors.New(errors.ErrCodeModelInvalid, "reaction rxn5 has no metabolites")
//	return errors.Wrap(err, errors.ErrCodeExternalService, "BV-BRC query failed")
type AppError struct {
	// Code is the typed error code that identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description of the error.
	Message string

	// Detail carries supplementary context (entity IDs, query parameters)
	// that aids debugging without cluttering the message.
	Detail string

	// Cause is the underlying error, reachable via errors.Unwrap.
	Cause error
}

// Error implements the standard error interface.
// Format: "[<code>] <message>: <detail>", detail omitted when empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code, enabling
// errors.Is(err, errors.New(code, "")) style sentinel comparisons.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return appErr.Code == e.Code
	}
	return false
}

// WithDetail returns a shallow copy of the receiver with Detail set. Safe to
// call on a nil pointer.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// New constructs an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf constructs an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message. Returns nil when err
// is nil so call sites can wrap unconditionally.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an existing error with a code and a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// NotFound constructs an AppError with ErrCodeNotFound.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Code extracts the ErrorCode from any error in the chain, or ErrCodeInternal
// when the chain carries no AppError.
func Code(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound reports whether any error in the chain is a not-found AppError.
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeNotFound ||
			appErr.Code == ErrCodeCompoundNotFound ||
			appErr.Code == ErrCodeReactionNotFound ||
			appErr.Code == ErrCodeTemplateNotFound
	}
	return false
}

// Is re-exports the standard library errors.Is for call-site convenience.
func Is(err, target error) bool { return errors.Is(err, target) }

// As re-exports the standard library errors.As for call-site convenience.
func As(err error, target interface{}) bool { return errors.As(err, target) }
