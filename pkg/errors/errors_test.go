package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidInput, "test message: %s", "value")

	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_INPUT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodePersist, cause, "failed to fetch")

	if err.Code != ErrCodePersist {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodePersist)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodeInvalidInput,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidInput, "test"),
			code:     ErrCodePersist,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodePersist, New(ErrCodeInvalidInput, "inner"), "outer"),
			code:     ErrCodePersist,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeImageFormat, "test"),
			expected: ErrCodeImageFormat,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTypedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		msg  string
	}{
		{
			name: "image format",
			err:  &ImageFormatError{Format: "gray", Reason: "no alpha channel"},
			code: ErrCodeImageFormat,
			msg:  "image format gray: no alpha channel",
		},
		{
			name: "insufficient land",
			err:  &InsufficientLandError{Found: 3, Requested: 10},
			code: ErrCodeInsufficientLand,
			msg:  "insufficient land: found 3 of 10 requested points",
		},
		{
			name: "degenerate input",
			err:  &DegenerateInputError{Points: 2, Reason: "need at least 4 points"},
			code: ErrCodeDegenerateInput,
			msg:  "degenerate input (2 points): need at least 4 points",
		},
		{
			name: "invalid geometry",
			err:  &InvalidGeometryError{RegionID: 7, Reason: "empty ring"},
			code: ErrCodeInvalidGeometry,
			msg:  "region 7: invalid geometry: empty ring",
		},
		{
			name: "persist wraps coded cause",
			err:  &PersistError{RegionID: 2, Cause: New(ErrCodeInternal, "disk full")},
			code: ErrCodePersist,
			msg:  "persist region 2: INTERNAL_ERROR: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.msg {
				t.Errorf("Error() = %q, want %q", got, tt.msg)
			}
			if !Is(tt.err, tt.code) {
				t.Errorf("Is(%v) = false, want true", tt.code)
			}
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if got := GetCode(wrapped); got != tt.code {
				t.Errorf("GetCode(wrapped) = %v, want %v", got, tt.code)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"insufficient land", &InsufficientLandError{Found: 1, Requested: 5}, false},
		{"invalid geometry", &InvalidGeometryError{RegionID: 1}, false},
		{"persist", &PersistError{RegionID: 1, Cause: errors.New("x")}, false},
		{"image format", &ImageFormatError{Reason: "x"}, true},
		{"degenerate", &DegenerateInputError{Points: 1}, true},
		{"plain", errors.New("boom"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.want {
				t.Errorf("IsFatal() = %v, want %v", got, tt.want)
			}
		})
	}
}
