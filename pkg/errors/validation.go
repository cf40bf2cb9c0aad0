package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateIdentifier validates a table, column, group or namespace name.
// Quoted SQL identifiers may contain almost anything, so the rules only
// reject what breaks rendering and file naming:
//   - No empty names
//   - No control characters
//   - Maximum length of 128 characters
func ValidateIdentifier(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidSchema, "%s name cannot be empty", kind)
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidSchema, "%s name too long (max 128 characters): %q", kind, name[:32]+"...")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSchema, "%s name contains invalid control characters: %q", kind, name)
		}
	}

	return nil
}

// colorRegex matches #rgb and #rrggbb colors.
var colorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidateColor validates a header or group color. Empty means "default".
func ValidateColor(color string) error {
	if color == "" {
		return nil
	}
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidSchema, "invalid color %q (want #rgb or #rrggbb)", color)
	}
	return nil
}

// ValidateDSN checks that a database connection string names a supported
// scheme. Credentials are never echoed back in the error.
func ValidateDSN(dsn string) error {
	if dsn == "" {
		return New(ErrCodeInvalidInput, "database DSN cannot be empty")
	}
	for _, prefix := range []string{"postgres://", "postgresql://", "sqlite://", "sqlite3://", "file:"} {
		if strings.HasPrefix(dsn, prefix) {
			return nil
		}
	}
	return New(ErrCodeUnsupported, "unsupported database DSN scheme (use postgres://, sqlite:// or file:)")
}
