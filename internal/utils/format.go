package utils

import (
	"fmt"
	"strings"
)

// FormatCurrency renders an IDR amount in the Indonesian convention,
// e.g. 1500000 -> "Rp 1.500.000". Fractions are dropped; rupiah
// amounts are whole numbers in practice.
func FormatCurrency(amount float64) string {
	whole := int64(amount)
	negative := whole < 0
	if negative {
		whole = -whole
	}

	digits := fmt.Sprintf("%d", whole)
	var groups []string
	for len(digits) > 3 {
		groups = append([]string{digits[len(digits)-3:]}, groups...)
		digits = digits[:len(digits)-3]
	}
	groups = append([]string{digits}, groups...)

	formatted := "Rp " + strings.Join(groups, ".")
	if negative {
		return "-" + formatted
	}
	return formatted
}
