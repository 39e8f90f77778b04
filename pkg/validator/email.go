package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyEmail indicates the email address is empty
	ErrEmptyEmail = errors.New("email address cannot be empty")

	// ErrInvalidEmail indicates the email address does not look deliverable
	ErrInvalidEmail = errors.New("email address is not valid")
)

// emailRegex is intentionally permissive: local@domain.tld with no spaces
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailValidator handles email address validation for visitor records
type EmailValidator struct{}

// NewEmailValidator creates a new email validator instance
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{}
}

// Validate validates an email address and returns the sanitized
// (trimmed, lowercased) form.
func (v *EmailValidator) Validate(email string) (string, error) {
	sanitized := v.Sanitize(email)
	if sanitized == "" {
		return "", ErrEmptyEmail
	}
	if !emailRegex.MatchString(sanitized) {
		return "", ErrInvalidEmail
	}
	return sanitized, nil
}

// Sanitize trims whitespace and lowercases the address
func (v *EmailValidator) Sanitize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValid is a convenience method that returns true if email is valid
func (v *EmailValidator) IsValid(email string) bool {
	_, err := v.Validate(email)
	return err == nil
}
