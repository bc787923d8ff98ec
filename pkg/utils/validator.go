package utils

import (
	"fmt"
	"regexp"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateEmployeeCode validates an employee code: 3 to 16 uppercase
// alphanumerics
func ValidateEmployeeCode(code string) error {
	matched, _ := regexp.MatchString(`^[A-Z0-9]{3,16}$`, code)
	if !matched {
		return fmt.Errorf("invalid employee code: %s", code)
	}
	return nil
}

// ValidateCurrency validates a three-letter ISO currency code
func ValidateCurrency(code string) error {
	matched, _ := regexp.MatchString(`^[A-Z]{3}$`, code)
	if !matched {
		return fmt.Errorf("invalid currency code: %s", code)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
