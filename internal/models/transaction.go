package models

import "github.com/shopspring/decimal"

// Transaction represents a single payment event. Immutable once created.
// One transaction may settle multiple shares, but each share is settled by
// at most one transaction. The transaction ID doubles as the idempotency
// key for settlement retries.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// Amount is the positive payment amount in CurrencyID.
	Amount decimal.Decimal

	// CurrencyID references the currency the payment was made in.
	CurrencyID string

	// CreatorID is the user who recorded the payment. Only the creator
	// may apply the transaction to shares.
	CreatorID string

	// Description is an optional note.
	Description string

	// CreatedAt is the Unix timestamp when the payment was recorded.
	CreatedAt int64
}
