// Package errors provides unified error handling with a closed error-code
// taxonomy shared across the capture, OCR, and persistence layers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a failure by which boundary produced it and how the
// caller is expected to react.
type ErrorCode int

const (
	Unknown ErrorCode = iota
	Internal
	Config
	// CaptureFatal is any capture failure other than "frame not ready".
	// A capture-less tracker is useless, so these abort the process.
	CaptureFatal
	// Layout reports malformed image data handed to the tensor adapter.
	Layout
	// OCR reports a word-detection, line-grouping, or recognition failure.
	// It aborts the current frame; the polling cycle continues.
	OCR
	// Persistence reports a state-file read, decode, or write failure.
	Persistence
)

var codeNames = map[ErrorCode]string{
	Unknown:      "UNKNOWN",
	Internal:     "INTERNAL",
	Config:       "CONFIG",
	CaptureFatal: "CAPTURE_FATAL",
	Layout:       "LAYOUT",
	OCR:          "OCR",
	Persistence:  "PERSISTENCE",
}

// String returns the code's stable name.
func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     ErrorCode
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the error code from err or any error it wraps.
// Plain errors report Unknown.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}

// IsCode checks if an error (or anything it wraps) carries a specific code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
