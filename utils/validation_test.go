package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"juan@example.com",
		"maria.perez@club.com.ar",
		"x@y.co",
	}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@domain",
		"two@@example.com",
		"spaces in@example.com",
		"@example.com",
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestValidateArgentinePhone(t *testing.T) {
	t.Run("accepts local spellings", func(t *testing.T) {
		for _, phone := range []string{
			"+54 9 11 1234-5678",
			"011 1234-5678",
			"11 1234-5678",
			"1234-5678",
		} {
			_, err := ValidateArgentinePhone(phone)
			assert.NoError(t, err, phone)
		}
	})

	t.Run("normalizes leading zero to international form", func(t *testing.T) {
		normalized, err := ValidateArgentinePhone("011 1234-5678")
		require.NoError(t, err)
		assert.Equal(t, "+54 1112345678", normalized)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, phone := range []string{"", "abc", "123", "123456789012345678"} {
			_, err := ValidateArgentinePhone(phone)
			assert.Error(t, err, phone)
		}
	})
}

func TestFormatAmountARS(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{1500.5, "$1.500,50"},
		{0, "$0,00"},
		{999.99, "$999,99"},
		{1000, "$1.000,00"},
		{1234567.89, "$1.234.567,89"},
		{-250.75, "-$250,75"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmountARS(tt.amount))
	}
}
