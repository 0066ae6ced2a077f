// Package errors provides structured error types for bundlescope.
//
// This package defines error codes and types that enable:
//   - Consistent error handling between the analysis library and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - MALFORMED_*: Binary input that violates its format
//   - *_NOT_FOUND: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPackage, "invalid package name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidPackage) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMalformedClass, io.ErrUnexpectedEOF, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidPackage     Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeInvalidHeader      Code = "INVALID_HEADER"
	ErrCodeInvalidInstruction Code = "INVALID_INSTRUCTION"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"

	// Binary format errors
	ErrCodeMalformedClass   Code = "MALFORMED_CLASS"
	ErrCodeMalformedArchive Code = "MALFORMED_ARCHIVE"

	// Pattern errors
	ErrCodePatternCompile Code = "PATTERN_COMPILE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Coded is implemented by the typed errors of this package that carry a
// fixed code.
type Coded interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a [Coded] error with
// a matching code.
func Is(err error, code Code) bool {
	return code != "" && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the chain holds neither an *Error nor a [Coded]
// error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Coded
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// MalformedClassError reports a structural violation in a class file.
// Offset is the byte position at which the violation was detected.
type MalformedClassError struct {
	Path   string
	Offset int
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *MalformedClassError) Error() string {
	msg := fmt.Sprintf("malformed class %s at offset %d: %s", e.Path, e.Offset, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *MalformedClassError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *MalformedClassError) Code() Code {
	return ErrCodeMalformedClass
}

// PatternCompileError reports an instruction that does not translate to a
// valid regular expression.
type PatternCompileError struct {
	Source string // Instruction text as written by the user
	Regexp string // Translated expression that failed to compile
	Cause  error
}

// Error implements the error interface.
func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("instruction %q does not compile (%s): %v", e.Source, e.Regexp, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *PatternCompileError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *PatternCompileError) Code() Code {
	return ErrCodePatternCompile
}
