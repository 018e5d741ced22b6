package models

import "github.com/shopspring/decimal"

// Participation is one participant's share of one expense's amount.
//
// The settlement fields start unset and are written exactly once when a
// transaction settles the share. The only path back to unset is a
// corrective recompute fixing drift, never a normal transition.
type Participation struct {
	// ID is the unique identifier for the participation (UUID format).
	ID string

	// ExpenseID is the owning expense.
	ExpenseID string

	// UserID is the participant who owes this share.
	UserID string

	// Amount is the non-negative share in the expense's currency. The sum
	// of all shares for an expense equals the expense amount within the
	// configured tolerance.
	Amount decimal.Decimal

	// SettledBy is the ID of the transaction that settled this share, or
	// empty while outstanding.
	SettledBy string

	// SettledAmount is the amount paid, expressed in the settling
	// transaction's currency. Nil while outstanding.
	SettledAmount *decimal.Decimal

	// RateID is the conversion rate used when the transaction currency
	// differed from the expense currency. Empty when no conversion applied.
	RateID string

	// RateTimestamp is the CreatedAt of the rate at settlement time,
	// kept for audit. Zero when no conversion applied.
	RateTimestamp int64
}

// Settled reports whether this share is no longer outstanding. A share with
// zero original amount is always settled.
func (p *Participation) Settled() bool {
	return p.SettledBy != "" || p.Amount.IsZero()
}
