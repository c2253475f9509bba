// Package money holds the fixed-precision helpers used by reconciliation.
// Every amount is a decimal.Decimal expressed in currency units with two
// decimal places; comparisons go through Equal, which tolerates Epsilon.
package money

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places of a currency unit.
const Places = 2

// Epsilon is the tolerance used by every amount comparison (half a cent).
var Epsilon = decimal.RequireFromString("0.005")

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Equal reports whether a and b differ by strictly less than Epsilon.
func Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// IsZero reports whether d is zero within Epsilon.
func IsZero(d decimal.Decimal) bool {
	return Equal(d, decimal.Zero)
}

// Sum adds all amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// ValidCurrencyCode reports whether code is a 3-letter uppercase ISO-style code.
func ValidCurrencyCode(code string) bool {
	return currencyCodeRe.MatchString(code)
}
