// Package validation contains structural checks for user-supplied
// registration input.
package validation

import (
	"strings"
	"unicode"
)

// SanitizeEmail trims whitespace and lowercases an email address. It is
// applied before every lookup and before storage, so lookups are
// case-insensitive and stored emails are normalized.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail performs a permissive shape check: exactly one '@', no
// whitespace, and a dot somewhere after the '@'. Not RFC-complete.
func IsValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\n") {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// ValidatePassword enforces the password strength rule: at least 8
// characters with one uppercase letter, one lowercase letter and one
// digit. Only the first failing rule's message is returned.
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters long"
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return false, "Password must contain at least one uppercase letter"
	}
	if !hasLower {
		return false, "Password must contain at least one lowercase letter"
	}
	if !hasDigit {
		return false, "Password must contain at least one number"
	}

	return true, "Password is strong"
}
