// Package money holds the fixed-precision rules for monetary values.
//
// Every amount that crosses a package boundary is a shopspring decimal
// rounded to two fractional digits. Rounding is half away from zero, which
// is what decimal.Round does.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the fixed number of fractional digits for persisted amounts.
const Places = 2

// ErrMissingConvertedAmount is returned when a payer row on a
// cross-currency expense has no converted amount. Treating it as zero would
// silently break the group's conservation invariant, so it is rejected.
var ErrMissingConvertedAmount = errors.New("cross-currency payment requires a converted amount")

// Round normalizes an amount to two fractional digits, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Parse converts a decimal string into a two-place amount.
// Returns an error for empty or malformed input.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, errors.New("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Round(d), nil
}

// String formats an amount with exactly two fractional digits. This is the
// canonical form written to storage, so precision survives round-trips.
func String(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// ResolveContribution picks the home-currency value of a single payment.
//
// When the expense currency matches the group currency the raw amount is
// used as-is. When they differ the payment only counts through its
// converted amount; a nil converted amount is an error rather than a silent
// zero.
func ResolveContribution(expenseCurrency, groupCurrency string, amount decimal.Decimal, converted *decimal.Decimal) (decimal.Decimal, error) {
	if expenseCurrency == groupCurrency {
		return amount, nil
	}
	if converted == nil {
		return decimal.Zero, ErrMissingConvertedAmount
	}
	return *converted, nil
}
