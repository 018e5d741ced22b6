package models

import "github.com/shopspring/decimal"

// SplitMethod is the strategy used to derive shares from an expense amount.
type SplitMethod string

const (
	// SplitEqual divides the amount evenly among participants; the
	// rounding residual goes to the first-listed participant.
	SplitEqual SplitMethod = "EQUAL"

	// SplitPercentage divides the amount by per-participant percentages
	// that must sum to 100.
	SplitPercentage SplitMethod = "PERCENTAGE"

	// SplitUnequal uses explicit per-participant amounts that must sum to
	// the expense amount.
	SplitUnequal SplitMethod = "UNEQUAL"
)

// Valid reports whether m is a known split method.
func (m SplitMethod) Valid() bool {
	switch m {
	case SplitEqual, SplitPercentage, SplitUnequal:
		return true
	}
	return false
}

// Expense represents one cost paid by one user and split among participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// Description is the human-readable label (e.g., "Dinner at Luigi's").
	Description string

	// Amount is the positive total in the expense currency.
	Amount decimal.Decimal

	// CurrencyID references the currency of Amount.
	CurrencyID string

	// GroupID is the owning group, or empty for a direct two-party expense.
	GroupID string

	// PayerID is the user who paid the full amount up front.
	PayerID string

	// Method is the split strategy the shares were derived with.
	Method SplitMethod

	// Settled is derived state: true only while every participation is
	// settled. Recomputed on every settlement write, never authoritative
	// on its own.
	Settled bool

	// CreatedAt is the Unix timestamp when the expense was created.
	CreatedAt int64
}

// ExpensePatch lists the fields an expense update may change. Each field is
// optional; Apply copies only the present ones onto the expense. Amount,
// currency or method changes require the caller to re-derive shares.
type ExpensePatch struct {
	Description *string
	Amount      *decimal.Decimal
	CurrencyID  *string
	Method      *SplitMethod
}

// Apply copies the present patch fields onto e and reports whether any of
// the share-affecting fields (amount, currency, method) changed.
func (p *ExpensePatch) Apply(e *Expense) bool {
	reshare := false
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Amount != nil && !p.Amount.Equal(e.Amount) {
		e.Amount = *p.Amount
		reshare = true
	}
	if p.CurrencyID != nil && *p.CurrencyID != e.CurrencyID {
		e.CurrencyID = *p.CurrencyID
		reshare = true
	}
	if p.Method != nil && *p.Method != e.Method {
		e.Method = *p.Method
		reshare = true
	}
	return reshare
}
