// Package validation holds input rules shared by services and handlers.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxEmailLength    = 254
	maxDisplayName    = 60
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]{1,28}[a-zA-Z0-9]$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)+$`)
)

// ValidateUsername checks the public handle format. Handles are immutable, so
// the rules are strict.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.New("username must be 3-30 characters, letters, numbers, '_' or '-', and start and end with a letter or number")
	}
	return nil
}

// ValidateEmail checks address shape and length.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword enforces length plus at least one letter and one digit.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}

// NormalizeDisplayName trims the name and falls back to the username when empty.
func NormalizeDisplayName(displayName, username string) (string, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return username, nil
	}
	if utf8.RuneCountInString(displayName) > maxDisplayName {
		return "", fmt.Errorf("display name must be at most %d characters", maxDisplayName)
	}
	return displayName, nil
}
