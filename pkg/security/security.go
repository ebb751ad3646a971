// Package security provides validation, sanitization, and limits for the entrybatch package.
package security

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Security limits and configuration
const (
	// MaxAttempts is the hard limit for attempts per record
	MaxAttempts = 20

	// MaxRecordDelay is the hard limit for the pause between records
	MaxRecordDelay = 5 * time.Minute

	// MaxErrorMessageLength is the maximum length for reported error messages
	MaxErrorMessageLength = 4096

	// MaxColumnNameLength is the maximum length for source column names
	MaxColumnNameLength = 255
)

// Validation errors
var (
	ErrInvalidColumnName = errors.New("entrybatch: invalid column name")
	ErrColumnNameTooLong = errors.New("entrybatch: column name too long")
)

// SanitizeErrorMessage truncates and sanitizes error messages for reports and storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	// Truncate if too long
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampAttempts ensures the attempt budget is within [1, MaxAttempts]
func ClampAttempts(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxAttempts {
		return MaxAttempts
	}
	return n
}

// ClampDelay ensures a delay is within [0, MaxRecordDelay]
func ClampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d > MaxRecordDelay {
		return MaxRecordDelay
	}
	return d
}

// ValidateColumnName validates a source column name. Spreadsheet headers may
// contain spaces and punctuation but no control characters.
func ValidateColumnName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidColumnName
	}
	if len(name) > MaxColumnNameLength {
		return ErrColumnNameTooLong
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrInvalidColumnName
		}
	}
	return nil
}
