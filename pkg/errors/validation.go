package errors

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxPromptLength bounds the user prompt embedded in the planning template.
const MaxPromptLength = 4000

// ValidatePrompt checks a user prompt before it is sent to the planning model.
//
// The rules are intentionally conservative:
//   - No empty or whitespace-only prompts
//   - Maximum length of MaxPromptLength characters
//   - No control characters other than newline and tab
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return New(ErrCodeEmptyPrompt, "prompt cannot be empty")
	}

	if len([]rune(prompt)) > MaxPromptLength {
		return New(ErrCodeInvalidInput, "prompt too long (max %d characters)", MaxPromptLength)
	}

	for _, r := range prompt {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "prompt contains invalid control characters")
		}
	}

	return nil
}

// ValidatePath validates a relative asset or output path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a service base URL.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidateFlyerID checks that id is a canonical run identifier.
// Run identifiers double as directory names, so anything else is rejected.
func ValidateFlyerID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "flyer id cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid flyer id: %q", id)
	}
	if parsed.String() != id {
		return New(ErrCodeInvalidID, "flyer id must be in canonical form: %q", id)
	}
	return nil
}
