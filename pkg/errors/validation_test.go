package errors

import (
	"testing"
)

func TestValidateRunID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "3f0c9a52-6d0e-4c1a-9a57-7b8f4f6c2d11", false},
		{"simple", "run-1", false},
		{"underscore", "batch_7", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 80)), true},
		{"path traversal", "../etc", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"leading dash", "-run", true},
		{"control char", "run\x01", true},
		{"space", "run 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRunID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRunID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateRunID(%q) code = %s, want %s", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateURI(t *testing.T) {
	mongo := []string{"mongodb", "mongodb+srv"}
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"mongodb", "mongodb://localhost:27017", false},
		{"srv", "mongodb+srv://cluster.example.net/db", false},
		{"with credentials", "mongodb://user:pw@db:27017/?authSource=admin", false},

		{"empty", "", true},
		{"wrong scheme", "http://localhost:27017", true},
		{"no scheme", "localhost:27017", true},
		{"no host", "mongodb:///db", true},
		{"unparseable", "mongodb://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURI(tt.input, mongo...)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURI(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
