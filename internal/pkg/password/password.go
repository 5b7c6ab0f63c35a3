package password

import (
	"fmt"
	"unicode"

	"github.com/bitjob/backend/internal/domain"
)

// MinLength is the minimum accepted password length.
const MinLength = 8

// Validate applies the password strength policy: minimum length, not fully
// numeric, and at least one uppercase letter, one lowercase letter and one
// digit. Violations are wrapped in domain.ErrBadRequest.
func Validate(pw string) error {
	if len(pw) < MinLength {
		return fmt.Errorf("password must be at least %d characters long: %w", MinLength, domain.ErrBadRequest)
	}
	var hasUpper, hasLower, hasDigit bool
	allDigits := true
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
			allDigits = false
		case unicode.IsLower(r):
			hasLower = true
			allDigits = false
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			allDigits = false
		}
	}
	if allDigits {
		return fmt.Errorf("password cannot be entirely numeric: %w", domain.ErrBadRequest)
	}
	if !hasUpper {
		return fmt.Errorf("password must contain an uppercase letter: %w", domain.ErrBadRequest)
	}
	if !hasLower {
		return fmt.Errorf("password must contain a lowercase letter: %w", domain.ErrBadRequest)
	}
	if !hasDigit {
		return fmt.Errorf("password must contain a digit: %w", domain.ErrBadRequest)
	}
	return nil
}
