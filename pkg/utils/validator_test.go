package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateVATNumber(t *testing.T) {
	tests := []struct {
		vat     string
		wantErr bool
	}{
		{"SK2020123456", false},
		{"sk 2020 123 456", false},
		{"CZ12345678", false},
		{"2020123456", true},
		{"SK", true},
		{"SK-2020", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.vat, func(t *testing.T) {
			err := ValidateVATNumber(tt.vat)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("uctovnik@acme.sk"))
	assert.Error(t, ValidateEmail("acme.sk"))
}

func TestValidatePeriod(t *testing.T) {
	assert.NoError(t, ValidatePeriod(2024, 12))
	assert.Error(t, ValidatePeriod(2024, 0))
	assert.Error(t, ValidatePeriod(1999, 5))
}
