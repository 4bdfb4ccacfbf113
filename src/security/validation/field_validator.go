// src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrValidationFailed marks every rejection caused by client input.
var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxCommentTextLength   = 2000
	MaxSymbolLength        = 32
)

// Failf builds an error wrapping ErrValidationFailed.
func Failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

// Message returns the client-facing part of a validation error: everything
// after the sentinel, even when callers wrapped it with more context.
func Message(err error) string {
	msg := err.Error()
	marker := ErrValidationFailed.Error() + ": "
	if i := strings.Index(msg, marker); i >= 0 {
		return msg[i+len(marker):]
	}
	return msg
}

// --- String Validators ---

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return Failf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}
	return nil
}

// --- Numeric Validators ---

// ValidateIntRange checks that val lies within [minVal, maxVal].
func ValidateIntRange(val int, fieldName string, minVal, maxVal int) error {
	if val < minVal || val > maxVal {
		return Failf("%s must be an integer between %d and %d", fieldName, minVal, maxVal)
	}
	return nil
}
