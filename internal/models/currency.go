package models

import "github.com/shopspring/decimal"

// Currency represents a supported currency. Immutable after creation except
// for administrative corrections.
type Currency struct {
	// ID is the unique identifier for the currency (UUID format).
	ID string

	// Code is the ISO-like currency code (e.g., "USD"). Unique.
	Code string

	// Name is the display name (e.g., "US Dollar").
	Name string

	// Symbol is the optional display symbol (e.g., "$").
	Symbol string
}

// ConversionRate records that 1 unit of the from-currency equals Rate units
// of the to-currency at the recorded time. Immutable. Multiple rates may
// exist per pair over time; the latest by CreatedAt is authoritative for
// live conversions, while a specific rate ID is authoritative when a
// settlement references it.
type ConversionRate struct {
	// ID is the unique identifier for the rate (UUID format).
	ID string

	// FromCurrencyID and ToCurrencyID define the direction of the rate.
	FromCurrencyID string
	ToCurrencyID   string

	// Rate is the positive multiplier: 1 from-unit = Rate to-units.
	Rate decimal.Decimal

	// CreatedAt is the Unix timestamp when the rate was recorded.
	CreatedAt int64
}

// Matches reports whether the rate converts between the two currencies,
// in either stored direction.
func (r *ConversionRate) Matches(currencyA, currencyB string) bool {
	return (r.FromCurrencyID == currencyA && r.ToCurrencyID == currencyB) ||
		(r.FromCurrencyID == currencyB && r.ToCurrencyID == currencyA)
}
