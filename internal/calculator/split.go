// Package calculator holds the pure money math: deriving shares from an
// expense amount and netting pairwise debts. Nothing in this package reads
// or writes storage; persistence is the caller's responsibility.
package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
)

var hundred = decimal.NewFromInt(100)

// Share is one participant's computed portion of an expense amount.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// PercentShare is a percentage-strategy input pair.
type PercentShare struct {
	UserID  string
	Percent decimal.Decimal
}

// ExactShare is an unequal-strategy input pair.
type ExactShare struct {
	UserID string
	Amount decimal.Decimal
}

// SplitInput carries everything a split computation needs. Exactly one of
// Participants, Percents, or Exacts is consulted depending on Method.
type SplitInput struct {
	Amount  decimal.Decimal
	Method  models.SplitMethod
	PayerID string

	// Participants is the EQUAL strategy participant list, in order.
	// The rounding residual lands on the first entry.
	Participants []string

	// Percents is the PERCENTAGE strategy input; percentages must sum
	// to 100 within the engine tolerance.
	Percents []PercentShare

	// Exacts is the UNEQUAL strategy input; amounts must sum to the
	// expense amount within the engine tolerance. A nil slice (as opposed
	// to an empty one) means no explicit shares were supplied, and the
	// payer takes the full amount.
	Exacts []ExactShare
}

// Engine computes shares under a fixed money policy.
type Engine struct {
	policy money.Policy
}

// NewEngine creates a split engine with the given money policy.
func NewEngine(policy money.Policy) *Engine {
	return &Engine{policy: policy}
}

// ComputeShares turns an expense amount into per-participant shares that
// sum to the amount exactly. It is a pure function over its input and
// returns a ValidationError when the input is inconsistent with the chosen
// strategy.
func (e *Engine) ComputeShares(in SplitInput) ([]Share, error) {
	if !in.Amount.IsPositive() {
		return nil, errs.Validationf("expense amount must be positive, got %s", in.Amount)
	}

	switch in.Method {
	case models.SplitEqual:
		return e.splitEqual(in.Amount, in.Participants)
	case models.SplitPercentage:
		return e.splitPercentage(in.Amount, in.Percents)
	case models.SplitUnequal:
		return e.splitUnequal(in.Amount, in.PayerID, in.Exacts)
	default:
		return nil, errs.Validationf("unknown split method %q", in.Method)
	}
}

// splitEqual gives each participant floor(amount/n) and adds the residual
// cents to the first participant so the shares sum to the amount exactly.
func (e *Engine) splitEqual(amount decimal.Decimal, participants []string) ([]Share, error) {
	if len(participants) == 0 {
		return nil, errs.Validationf("equal split requires at least one participant")
	}
	if err := rejectDuplicates(participants); err != nil {
		return nil, err
	}

	n := decimal.NewFromInt(int64(len(participants)))
	base := money.Floor(amount.Div(n))
	residual := amount.Sub(base.Mul(n))

	shares := make([]Share, len(participants))
	for i, userID := range participants {
		shares[i] = Share{UserID: userID, Amount: base}
	}
	shares[0].Amount = shares[0].Amount.Add(residual)
	return shares, nil
}

// splitPercentage computes round(amount*pct/100) per participant and adds
// any rounding residual against the total to the first share.
func (e *Engine) splitPercentage(amount decimal.Decimal, percents []PercentShare) ([]Share, error) {
	if len(percents) == 0 {
		return nil, errs.Validationf("percentage split requires at least one participant")
	}
	ids := make([]string, len(percents))
	total := decimal.Zero
	for i, p := range percents {
		if !p.Percent.IsPositive() || p.Percent.Cmp(hundred) > 0 {
			return nil, errs.Validationf("percentage for %s must be in (0, 100], got %s", p.UserID, p.Percent)
		}
		ids[i] = p.UserID
		total = total.Add(p.Percent)
	}
	if err := rejectDuplicates(ids); err != nil {
		return nil, err
	}
	if !e.policy.Equal(total, hundred) {
		return nil, errs.Validationf("percentages must sum to 100, got %s", total)
	}

	shares := make([]Share, len(percents))
	allocated := decimal.Zero
	for i, p := range percents {
		share := money.Round(amount.Mul(p.Percent).Div(hundred))
		shares[i] = Share{UserID: p.UserID, Amount: share}
		allocated = allocated.Add(share)
	}
	shares[0].Amount = shares[0].Amount.Add(amount.Sub(allocated))
	return shares, nil
}

// splitUnequal validates explicit per-participant amounts. A nil input means
// no shares were supplied at all, and the payer takes the full amount; that
// is the default for the simplest expense-creation path.
func (e *Engine) splitUnequal(amount decimal.Decimal, payerID string, exacts []ExactShare) ([]Share, error) {
	if exacts == nil {
		if payerID == "" {
			return nil, errs.Validationf("unequal split without shares requires a payer")
		}
		return []Share{{UserID: payerID, Amount: amount}}, nil
	}
	if len(exacts) == 0 {
		return nil, errs.Validationf("unequal split requires at least one share")
	}

	ids := make([]string, len(exacts))
	total := decimal.Zero
	for i, s := range exacts {
		if !s.Amount.IsPositive() {
			return nil, errs.Validationf("share for %s must be positive, got %s", s.UserID, s.Amount)
		}
		ids[i] = s.UserID
		total = total.Add(s.Amount)
	}
	if err := rejectDuplicates(ids); err != nil {
		return nil, err
	}
	if !e.policy.Equal(total, amount) {
		return nil, errs.Validationf("shares sum to %s, expense amount is %s", total, amount)
	}

	shares := make([]Share, len(exacts))
	for i, s := range exacts {
		shares[i] = Share{UserID: s.UserID, Amount: s.Amount}
	}
	return shares, nil
}

// rejectDuplicates returns a ValidationError when the same participant
// appears twice in one call.
func rejectDuplicates(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return errs.Validationf("duplicate participant %s", id)
		}
		seen[id] = true
	}
	return nil
}
