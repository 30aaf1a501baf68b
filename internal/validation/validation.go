// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"unicode"
)

const (
	maxUsernameLen = 80
	maxPasswordLen = 128
)

// ValidateUsername checks that a username is well-formed: letters, digits,
// underscores and dots only, within length bounds.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > maxUsernameLen {
		return fmt.Errorf("username must not exceed %d characters", maxUsernameLen)
	}
	for _, r := range username {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return fmt.Errorf("username may only contain letters, digits, underscores and dots")
		}
	}
	return nil
}

// ValidatePassword checks password length bounds. Strength policy is
// deliberately permissive; the credential is stored as a bcrypt hash either
// way.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) > maxPasswordLen {
		return fmt.Errorf("password must not exceed %d characters", maxPasswordLen)
	}
	return nil
}
