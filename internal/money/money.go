// Package money centralizes the fixed-point rules every component shares:
// 2-decimal rounding, floor-to-cent, and the tolerance used when comparing
// sums. Keeping them here means split computation and settlement validation
// cannot drift apart.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places stored for all amounts.
const Places = 2

// Policy fixes the comparison tolerance for one deployment. It is passed
// explicitly into the split engine and settlement processor so different
// tolerance policies can coexist in tests.
type Policy struct {
	// Tolerance is the maximum absolute difference at which two amounts
	// are considered equal. Defaults to 0.01 of the currency unit.
	Tolerance decimal.Decimal
}

// DefaultPolicy returns the standard 0.01 tolerance policy.
func DefaultPolicy() Policy {
	return Policy{Tolerance: decimal.New(1, -2)}
}

// Equal reports whether a and b differ by no more than the tolerance.
func (p Policy) Equal(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(p.Tolerance) <= 0
}

// Round rounds half away from zero to the stored precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Floor truncates toward zero to the stored precision.
func Floor(d decimal.Decimal) decimal.Decimal {
	return d.RoundDown(Places)
}

// Sum adds all amounts, returning zero for an empty slice.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Parse converts a stored decimal string back into an amount.
func Parse(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
