package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/calculator"
	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

// ShareInputs carries the strategy-specific split parameters of an expense
// creation or update. Exactly one slice is consulted depending on the
// split method; a nil Exacts under UNEQUAL means the payer takes the full
// amount.
type ShareInputs struct {
	Participants []string
	Percents     []calculator.PercentShare
	Exacts       []calculator.ExactShare
}

// ExpenseInput is the fully-validated input for creating an expense.
type ExpenseInput struct {
	Description string
	Amount      decimal.Decimal
	CurrencyID  string
	GroupID     string
	PayerID     string
	Method      models.SplitMethod
	Shares      ShareInputs
}

// ExpenseService creates, updates and deletes expenses, deriving shares
// through the split engine. All multi-row writes go through the store's
// atomic operations.
type ExpenseService struct {
	store  storage.Store
	engine *calculator.Engine
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store storage.Store, engine *calculator.Engine) *ExpenseService {
	return &ExpenseService{store: store, engine: engine}
}

// Create validates the input, derives the shares and persists the expense
// with its participations in one atomic write.
func (s *ExpenseService) Create(ctx context.Context, actorID string, in ExpenseInput) (*models.Expense, []*models.Participation, error) {
	if !in.Method.Valid() {
		return nil, nil, errs.Validationf("unknown split method %q", in.Method)
	}
	if in.PayerID == "" {
		return nil, nil, errs.Validationf("payer is required")
	}
	if _, err := s.store.GetCurrency(ctx, in.CurrencyID); err != nil {
		return nil, nil, err
	}
	if in.GroupID != "" {
		if _, err := s.store.GetGroup(ctx, in.GroupID); err != nil {
			return nil, nil, err
		}
	}

	shares, err := s.computeShares(in)
	if err != nil {
		return nil, nil, err
	}

	expense := &models.Expense{
		Description: in.Description,
		Amount:      in.Amount,
		CurrencyID:  in.CurrencyID,
		GroupID:     in.GroupID,
		PayerID:     in.PayerID,
		Method:      in.Method,
	}
	participations := buildParticipations(shares)
	if err := s.store.CreateExpense(ctx, expense, participations); err != nil {
		slog.Error("expense create failed", "error", err, "actor", actorID)
		return nil, nil, err
	}

	s.autoAddParticipantsToGroup(ctx, expense.GroupID, participations, expense.PayerID)

	return expense, participations, nil
}

// Get retrieves an expense with all its participations.
func (s *ExpenseService) Get(ctx context.Context, expenseID string) (*models.Expense, []*models.Participation, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	shares, err := s.store.ListParticipations(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	return expense, shares, nil
}

// Update applies the patch to the expense. A metadata-only patch (e.g.
// description) keeps the existing participations untouched; when the
// amount, currency or method changes, or fresh share inputs are supplied,
// the shares are re-derived and fully replaced in one atomic write. Only
// the payer may update an expense, and not after any share has been
// settled (the settlement audit trail would be lost).
func (s *ExpenseService) Update(ctx context.Context, actorID, expenseID string, patch models.ExpensePatch, inputs ShareInputs) (*models.Expense, []*models.Participation, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if expense.PayerID != actorID {
		return nil, nil, errs.Authorizationf("only the payer may update an expense")
	}

	existing, err := s.store.ListParticipations(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range existing {
		if p.SettledBy != "" {
			return nil, nil, errs.Conflictf("expense %s has settled shares and can no longer be updated", expenseID)
		}
	}

	reshare := patch.Apply(expense)
	if patch.CurrencyID != nil {
		if _, err := s.store.GetCurrency(ctx, expense.CurrencyID); err != nil {
			return nil, nil, err
		}
	}

	// Without fresh share inputs, nil Exacts would read as the creation
	// default (payer takes all) and silently replace the real shares.
	hasInputs := inputs.Participants != nil || inputs.Percents != nil || inputs.Exacts != nil
	if !hasInputs {
		if reshare {
			return nil, nil, errs.Validationf("changing the amount, currency or split method requires new share inputs")
		}
		if err := s.store.UpdateExpense(ctx, expense, existing); err != nil {
			slog.Error("expense update failed", "error", err, "expense", expenseID)
			return nil, nil, err
		}
		return expense, existing, nil
	}

	shares, err := s.computeShares(ExpenseInput{
		Amount:  expense.Amount,
		Method:  expense.Method,
		PayerID: expense.PayerID,
		Shares:  inputs,
	})
	if err != nil {
		return nil, nil, err
	}

	expense.Settled = false
	participations := buildParticipations(shares)
	if err := s.store.UpdateExpense(ctx, expense, participations); err != nil {
		slog.Error("expense update failed", "error", err, "expense", expenseID)
		return nil, nil, err
	}
	return expense, participations, nil
}

// Delete removes the expense and its participations in one atomic write.
// Only the payer may delete an expense.
func (s *ExpenseService) Delete(ctx context.Context, actorID, expenseID string) error {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if expense.PayerID != actorID {
		return errs.Authorizationf("only the payer may delete an expense")
	}
	return s.store.DeleteExpense(ctx, expenseID)
}

func (s *ExpenseService) computeShares(in ExpenseInput) ([]calculator.Share, error) {
	return s.engine.ComputeShares(calculator.SplitInput{
		Amount:       in.Amount,
		Method:       in.Method,
		PayerID:      in.PayerID,
		Participants: in.Shares.Participants,
		Percents:     in.Shares.Percents,
		Exacts:       in.Shares.Exacts,
	})
}

func buildParticipations(shares []calculator.Share) []*models.Participation {
	participations := make([]*models.Participation, len(shares))
	for i, share := range shares {
		participations[i] = &models.Participation{
			UserID: share.UserID,
			Amount: share.Amount,
		}
	}
	return participations
}

// autoAddParticipantsToGroup adds any expense participants (and the payer)
// not already in the owning group. Failures are logged, not fatal: the
// expense itself committed.
func (s *ExpenseService) autoAddParticipantsToGroup(ctx context.Context, groupID string, shares []*models.Participation, payerID string) {
	if groupID == "" {
		return
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Warn("autoAddParticipantsToGroup: failed to get group", "group_id", groupID, "error", err)
		return
	}

	members := make(map[string]bool, len(group.Members))
	for _, m := range group.Members {
		members[m] = true
	}

	var newMembers []string
	seen := make(map[string]bool)
	for _, share := range shares {
		if !members[share.UserID] && !seen[share.UserID] {
			newMembers = append(newMembers, share.UserID)
			seen[share.UserID] = true
		}
	}
	if payerID != "" && !members[payerID] && !seen[payerID] {
		newMembers = append(newMembers, payerID)
	}
	if len(newMembers) == 0 {
		return
	}

	if err := s.store.AddGroupMembers(ctx, groupID, newMembers); err != nil {
		slog.Error("autoAddParticipantsToGroup: failed to add members", "group_id", groupID, "error", err)
		return
	}
	slog.Info("auto-added participants to group", "group_id", groupID, "new_members", newMembers)
}
