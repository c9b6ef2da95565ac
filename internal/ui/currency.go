package ui

import (
	"fmt"
	"strings"
)

// FormatCurrency renders a value as Brazilian Real, dot-grouped thousands
// and a comma decimal separator: 1234567.8 -> "R$ 1.234.567,80".
func FormatCurrency(v float64) string {
	negative := v < 0
	if negative {
		v = -v
	}

	s := fmt.Sprintf("%.2f", v)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, grouped.String(), fracPart)
}
