package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

// ValidatePassword enforces the account password length rules.
// bcrypt ignores input past 72 bytes, so longer passwords are rejected.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.New("password must be at least 6 characters long")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("password must not exceed 72 bytes")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
