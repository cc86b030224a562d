// Package errors provides structured error types for landcells.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP server
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes fall in two groups. Fatal codes stop a partition run:
// IMAGE_FORMAT, DEGENERATE_INPUT and INVALID_INPUT. Recoverable codes are
// reported and the run continues: INSUFFICIENT_LAND (fewer seeds than
// requested), INVALID_GEOMETRY (one region excluded) and PERSIST_FAILED
// (one region not written).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "regions must be positive, got %d", n)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Typed errors carry extra fields and still match their code.
//	var short *errors.InsufficientLandError
//	if stderrors.As(err, &short) {
//	    log.Warn("partial sample", "found", short.Found)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeImageFormat   Code = "IMAGE_FORMAT"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Geometry errors
	ErrCodeDegenerateInput  Code = "DEGENERATE_INPUT"
	ErrCodeInvalidGeometry  Code = "INVALID_GEOMETRY"
	ErrCodeInsufficientLand Code = "INSUFFICIENT_LAND"

	// Persistence errors
	ErrCodePersist Code = "PERSIST_FAILED"

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

// coded is implemented by the typed errors below.
type coded interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with
// a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// The first coded error in the chain wins. Returns empty string if the
// chain holds no coded error.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coded:
			return e.Code()
		}
		err = errors.Unwrap(err)
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

// IsFatal reports whether err should abort a partition run.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeInsufficientLand, ErrCodeInvalidGeometry, ErrCodePersist:
		return false
	}
	return err != nil
}

// ImageFormatError reports a raster that cannot be turned into a land mask.
type ImageFormatError struct {
	Format string // Color model or image type that was rejected
	Reason string
}

// Error implements the error interface.
func (e *ImageFormatError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("image format %s: %s", e.Format, e.Reason)
	}
	return "image format: " + e.Reason
}

// Code returns the error code for this error type.
func (e *ImageFormatError) Code() Code { return ErrCodeImageFormat }

// InsufficientLandError reports that sampling stopped before the requested
// number of unique land points was found.
type InsufficientLandError struct {
	Found     int
	Requested int
}

// Error implements the error interface.
func (e *InsufficientLandError) Error() string {
	return fmt.Sprintf("insufficient land: found %d of %d requested points", e.Found, e.Requested)
}

// Code returns the error code for this error type.
func (e *InsufficientLandError) Code() Code { return ErrCodeInsufficientLand }

// DegenerateInputError reports input too small or too collinear to
// tessellate or to enclose an area.
type DegenerateInputError struct {
	Points int
	Reason string
}

// Error implements the error interface.
func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input (%d points): %s", e.Points, e.Reason)
}

// Code returns the error code for this error type.
func (e *DegenerateInputError) Code() Code { return ErrCodeDegenerateInput }

// InvalidGeometryError reports a region whose centroid cannot be resolved.
type InvalidGeometryError struct {
	RegionID int
	Reason   string
}

// Error implements the error interface.
func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("region %d: invalid geometry: %s", e.RegionID, e.Reason)
}

// Code returns the error code for this error type.
func (e *InvalidGeometryError) Code() Code { return ErrCodeInvalidGeometry }

// PersistError reports a failed write of one region.
type PersistError struct {
	RegionID int
	Cause    error
}

// Error implements the error interface.
func (e *PersistError) Error() string {
	return fmt.Sprintf("persist region %d: %v", e.RegionID, e.Cause)
}

// Unwrap returns the backend error.
func (e *PersistError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *PersistError) Code() Code { return ErrCodePersist }
