// Package utils provides common formatting helpers for deepscreen.
package utils

import (
	"fmt"
	"math"
)

// FormatUSDCompact formats a dollar amount in compact notation.
// e.g., 48200000 → "$48.20M", 5300000000 → "$5.30B"
func FormatUSDCompact(amount float64) string {
	negative := amount < 0
	amount = math.Abs(amount)

	prefix := "$"
	if negative {
		prefix = "-$"
	}

	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s%.2fT", prefix, amount/1e12)
	case amount >= 1e9:
		return fmt.Sprintf("%s%.2fB", prefix, amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("%s%.2fM", prefix, amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("%s%.2fK", prefix, amount/1e3)
	default:
		return fmt.Sprintf("%s%.2f", prefix, amount)
	}
}

// FormatPct renders a fraction as a percentage, e.g. 0.123 → "12.3%".
func FormatPct(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// FormatPtr renders an optional number, using "n/a" for nil.
func FormatPtr(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
