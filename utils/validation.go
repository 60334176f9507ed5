package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

var phoneDigitsRegex = regexp.MustCompile(`^\+?[0-9]+$`)

// IsValidEmail reports whether email looks like a deliverable address.
func IsValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || !emailRegex.MatchString(email) {
		return false
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	// The domain needs at least one dot-separated label pair.
	return len(strings.Split(parts[1], ".")) >= 2
}

// ValidatePhone performs a format-agnostic length check.
func ValidatePhone(phone string, minLength int) error {
	if minLength <= 0 {
		minLength = 8
	}
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return fmt.Errorf("phone is required")
	}
	if len(trimmed) < minLength {
		return fmt.Errorf("phone must have at least %d digits", minLength)
	}
	return nil
}

// ValidateArgentinePhone accepts the usual local spellings
// (+54 9 11 1234-5678, 011 1234-5678, 11 1234-5678, 1234-5678) and returns
// the number normalized to international form when possible.
func ValidateArgentinePhone(phone string) (normalized string, err error) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return "", fmt.Errorf("phone is required")
	}

	cleaned := phoneSeparators.Replace(trimmed)
	if !phoneDigitsRegex.MatchString(cleaned) {
		return "", fmt.Errorf("phone may only contain digits")
	}

	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < 8 {
		return "", fmt.Errorf("phone must have at least 8 digits")
	}
	if len(digits) > 15 {
		return "", fmt.Errorf("phone must have at most 15 digits")
	}

	normalized = trimmed
	if !strings.HasPrefix(digits, "54") && len(digits) >= 10 && strings.HasPrefix(digits, "0") {
		normalized = "+54 " + digits[1:]
	}
	return normalized, nil
}
