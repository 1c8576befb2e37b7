package entity

import "strings"

// Company holds the profile data printed in the statement header
type Company struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	VAT          string `json:"vat" yaml:"vat"`
	Country      string `json:"country" yaml:"country"`
	City         string `json:"city" yaml:"city"`
	Zip          string `json:"zip" yaml:"zip"`
	Street       string `json:"street" yaml:"street"`
	StreetNumber string `json:"street_number" yaml:"street_number"`
	Phone        string `json:"phone" yaml:"phone"`
	Email        string `json:"email" yaml:"email"`
	Currency     string `json:"currency" yaml:"currency"`
}

// NormalizedVAT returns the VAT number carrying the prefix exactly once.
func NormalizedVAT(vat, prefix string) string {
	value := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(vat), " ", ""))
	prefix = strings.ToUpper(prefix)
	if value == "" {
		return ""
	}
	for prefix != "" && strings.HasPrefix(value, prefix) {
		value = strings.TrimPrefix(value, prefix)
	}
	return prefix + value
}
