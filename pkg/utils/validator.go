package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	vatRegex   = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{2,13}$`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateVATNumber checks the shape of an EU VAT identifier: a two-letter
// country prefix followed by 2 to 13 alphanumerics. Spaces are ignored.
func ValidateVATNumber(vat string) error {
	value := strings.ToUpper(strings.ReplaceAll(vat, " ", ""))
	if !vatRegex.MatchString(value) {
		return fmt.Errorf("invalid VAT number: %s", vat)
	}
	return nil
}

// ValidatePeriod checks a reporting year and month
func ValidatePeriod(year, month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12: %d", month)
	}
	if year < 2000 || year > 9999 {
		return fmt.Errorf("year out of range: %d", year)
	}
	return nil
}
