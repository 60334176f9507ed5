package utils

import (
	"fmt"
	"strings"
)

// FormatAmountARS renders an amount the way es-AR locales do:
// thousands separated by '.', decimals by ',', e.g. 1500.5 -> "$1.500,50".
func FormatAmountARS(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(s, ".", 2)
	intPart, decPart := parts[0], parts[1]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String() + "," + decPart
	if neg {
		out = "-" + out
	}
	return out
}
