package errors

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// maxRunIDLength bounds run IDs; a UUID is 36 characters.
const maxRunIDLength = 64

// runIDRegex matches run IDs safe to use as a directory name or key segment.
var runIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ValidateRunID checks that a run ID can name a store directory, a Redis
// key or a URL path segment. It rejects empty IDs, path separators,
// traversal sequences and control characters.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run ID cannot be empty")
	}
	if len(id) > maxRunIDLength {
		return New(ErrCodeInvalidInput, "run ID too long (max %d characters)", maxRunIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "run ID contains control characters")
		}
	}
	if strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return New(ErrCodeInvalidInput, "run ID cannot contain path components: %q", id)
	}
	if !runIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid run ID: %q", id)
	}
	return nil
}

// ValidateURI checks that a backend connection URI parses and uses one of
// the allowed schemes.
func ValidateURI(raw string, schemes ...string) error {
	if raw == "" {
		return New(ErrCodeInvalidInput, "URI cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URI")
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return New(ErrCodeInvalidInput, "URI %q has no host", raw)
			}
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URI scheme %q must be one of %s", u.Scheme, strings.Join(schemes, ", "))
}
