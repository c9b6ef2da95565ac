package ui

import "testing"

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "R$ 0,00"},
		{50, "R$ 50,00"},
		{1234.5, "R$ 1.234,50"},
		{1234567.891, "R$ 1.234.567,89"},
		{999.999, "R$ 1.000,00"},
		{-42.5, "-R$ 42,50"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.value); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
