package auth

import (
	"strings"
	"unicode"

	"github.com/healthq/healthq/models"
)

const (
	minEmailLen    = 5
	maxEmailLen    = 254
	minPasswordLen = 8
	minNameLen     = 2
	maxNameLen     = 50
)

// ValidateEmail checks the email shape: exactly one @, a dotted domain part,
// no leading or trailing dot or @, sane length.
func ValidateEmail(email string) error {
	if len(email) < minEmailLen || len(email) > maxEmailLen {
		return models.Validation("Invalid email format")
	}
	if strings.Count(email, "@") != 1 {
		return models.Validation("Invalid email format")
	}
	if strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return models.Validation("Invalid email format")
	}
	if strings.HasPrefix(email, ".") || strings.HasSuffix(email, ".") {
		return models.Validation("Invalid email format")
	}

	domain := email[strings.Index(email, "@")+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") {
		return models.Validation("Invalid email format")
	}

	return nil
}

// ValidatePassword enforces minimum length plus uppercase, lowercase, digit
// and special character classes.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return models.Validation("Password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return models.Validation("Password must contain uppercase, lowercase, a digit and a special character")
	}

	return nil
}

// ValidateName accepts trimmed names of 2 to 50 characters built from
// letters, spaces, hyphens and apostrophes.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < minNameLen || len(trimmed) > maxNameLen {
		return models.Validation("Name must be between 2 and 50 characters long")
	}

	for _, r := range trimmed {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' {
			continue
		}
		return models.Validation("Name may only contain letters, spaces, hyphens and apostrophes")
	}

	return nil
}
