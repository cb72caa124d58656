package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ParseISODate parses a strict YYYY-MM-DD calendar day
func ParseISODate(s string) (time.Time, error) {
	if len(s) != len(time.DateOnly) {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// SanitizeLine trims a single-line field and removes control characters
func SanitizeLine(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
