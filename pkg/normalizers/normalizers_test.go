package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"formatted", "(416) 555-0188", "4165550188"},
		{"dashes", "416-555-0188", "4165550188"},
		{"country code", "+1 416 555 0188", "14165550188"},
		{"placeholder", "n/a", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jon@example.com", NormalizeEmail("  Jon@Example.COM "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"suffix stripped", "Robert Smith Jr.", "robert smith"},
		{"roman numeral", "Henry Ford III", "henry ford"},
		{"punctuation", "O'Brien, Mary-Anne", "obrien maryanne"},
		{"collapsed whitespace", "  Ana   Lucia  ", "ana lucia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}
