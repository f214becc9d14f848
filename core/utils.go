package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// DigitsOnly drops every non-digit rune of `s`.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// FormatMoney renders an amount with 2 decimals and no currency symbol.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
