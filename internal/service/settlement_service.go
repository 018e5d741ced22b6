package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
	"github.com/splitpot/splitpot/internal/storage"
)

// SettleItem is one share to settle: the amount is expressed in the
// settling transaction's currency, with an optional conversion rate when
// that currency differs from the expense's.
type SettleItem struct {
	ParticipationID string
	Amount          decimal.Decimal
	RateID          string
}

// ItemStatus is the per-item outcome of a settlement call.
type ItemStatus string

const (
	ItemSettled  ItemStatus = "SETTLED"
	ItemRejected ItemStatus = "REJECTED"
)

// ItemResult reports what happened to one item. Rejections isolated to one
// item are returned as data, not errors, so three of four items can settle
// while the fourth reports "already settled".
type ItemResult struct {
	ParticipationID string
	Status          ItemStatus
	Reason          string
}

// SettlementResult is the outcome of one settlement call.
type SettlementResult struct {
	TransactionID string
	Items         []ItemResult
}

// SettlementService records payments against outstanding shares. Each
// share moves UNSETTLED -> SETTLED exactly once; the parent expense's
// settled flag is derived state, recomputed on every write.
type SettlementService struct {
	store  storage.Store
	rates  *CurrencyService
	policy money.Policy
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(store storage.Store, rates *CurrencyService, policy money.Policy) *SettlementService {
	return &SettlementService{store: store, rates: rates, policy: policy}
}

// CreateTransaction records a new immutable payment event. Its ID doubles
// as the idempotency key for settlement retries.
func (s *SettlementService) CreateTransaction(ctx context.Context, actorID string, amount decimal.Decimal, currencyID, description string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, errs.Validationf("transaction amount must be positive, got %s", amount)
	}
	if _, err := s.store.GetCurrency(ctx, currencyID); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		Amount:      amount,
		CurrencyID:  currencyID,
		CreatorID:   actorID,
		Description: description,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Settle applies an existing transaction to the given shares.
//
// Whole-call preconditions, checked before anything is written: the
// transaction must exist and the actor must be its creator; the batch must
// not reference the same participation twice; the item amounts must sum to
// the transaction amount within the tolerance. Everything else fails per
// item: a missing participation, one already settled by a different
// transaction, a rate that does not convert between the right currencies,
// or a currency mismatch when no rate is given. Re-settling with the same
// transaction is idempotent.
func (s *SettlementService) Settle(ctx context.Context, actorID, txnID string, items []SettleItem) (*SettlementResult, error) {
	txn, err := s.store.GetTransaction(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if txn.CreatorID != actorID {
		return nil, errs.Authorizationf("only the transaction creator may settle with it")
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.ParticipationID] {
			return nil, errs.Conflictf("duplicate participation %s in settlement batch", item.ParticipationID)
		}
		seen[item.ParticipationID] = true
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	if !s.policy.Equal(total, txn.Amount) {
		return nil, errs.Conflictf("item amounts sum to %s, transaction amount is %s", total, txn.Amount)
	}

	results := make([]ItemResult, len(items))
	var updates []storage.ShareSettlement
	updateIndex := make(map[string]int, len(items))

	for i, item := range items {
		results[i] = ItemResult{ParticipationID: item.ParticipationID, Status: ItemSettled}

		update, err := s.validateItem(ctx, txn, item)
		if err != nil {
			results[i].Status = ItemRejected
			results[i].Reason = err.Error()
			continue
		}
		updateIndex[item.ParticipationID] = i
		updates = append(updates, *update)
	}

	if len(updates) > 0 {
		outcomes, err := s.store.ApplySettlement(ctx, txnID, updates)
		if err != nil {
			slog.Error("settlement write failed", "transaction_id", txnID, "error", err)
			return nil, err
		}
		for _, outcome := range outcomes {
			if outcome.Err == nil {
				continue
			}
			i := updateIndex[outcome.ParticipationID]
			results[i].Status = ItemRejected
			results[i].Reason = outcome.Err.Error()
		}
	}

	return &SettlementResult{TransactionID: txnID, Items: results}, nil
}

// validateItem runs the per-item checks and builds the settlement write.
func (s *SettlementService) validateItem(ctx context.Context, txn *models.Transaction, item SettleItem) (*storage.ShareSettlement, error) {
	share, err := s.store.GetParticipation(ctx, item.ParticipationID)
	if err != nil {
		return nil, err
	}
	if share.SettledBy != "" && share.SettledBy != txn.ID {
		return nil, errs.Conflictf("participation %s already settled by transaction %s",
			share.ID, share.SettledBy)
	}

	expense, err := s.store.GetExpense(ctx, share.ExpenseID)
	if err != nil {
		return nil, err
	}

	update := &storage.ShareSettlement{
		ParticipationID: item.ParticipationID,
		SettledAmount:   item.Amount,
	}

	if item.RateID != "" {
		rate, err := s.store.GetRate(ctx, item.RateID)
		if err != nil {
			return nil, err
		}
		if !rate.Matches(expense.CurrencyID, txn.CurrencyID) {
			return nil, errs.Validationf("rate %s does not convert between the expense and transaction currencies", rate.ID)
		}
		update.RateID = rate.ID
		update.RateTimestamp = rate.CreatedAt
		return update, nil
	}

	if expense.CurrencyID != txn.CurrencyID {
		return nil, errs.Validationf("transaction currency differs from expense currency and no conversion rate was given")
	}
	return update, nil
}

// SettleDirectPayment records a payment from debtor to creditor and
// settles the given shares with it in one call, creating the transaction
// implicitly. Eligible shares are those owed by the debtor on expenses the
// creditor paid; the actor must be the debtor or the creditor.
func (s *SettlementService) SettleDirectPayment(ctx context.Context, actorID, debtorID, creditorID string, amount decimal.Decimal, currencyID string, participationIDs []string) (*SettlementResult, error) {
	if actorID != debtorID && actorID != creditorID {
		return nil, errs.Authorizationf("only the debtor or the creditor may record a direct payment")
	}
	if !amount.IsPositive() {
		return nil, errs.Validationf("payment amount must be positive, got %s", amount)
	}
	if len(participationIDs) == 0 {
		return nil, errs.Validationf("at least one participation is required")
	}
	if _, err := s.store.GetCurrency(ctx, currencyID); err != nil {
		return nil, err
	}

	items := make([]SettleItem, 0, len(participationIDs))
	total := decimal.Zero
	for _, id := range participationIDs {
		share, err := s.store.GetParticipation(ctx, id)
		if err != nil {
			return nil, err
		}
		expense, err := s.store.GetExpense(ctx, share.ExpenseID)
		if err != nil {
			return nil, err
		}
		if share.UserID != debtorID || expense.PayerID != creditorID {
			return nil, errs.Validationf("participation %s is not a debt from %s to %s", id, debtorID, creditorID)
		}
		if share.SettledBy != "" {
			return nil, errs.Conflictf("participation %s already settled by transaction %s", id, share.SettledBy)
		}

		item := SettleItem{ParticipationID: id, Amount: share.Amount}
		if expense.CurrencyID != currencyID {
			quote, err := s.rates.LatestRate(ctx, expense.CurrencyID, currencyID)
			if err != nil {
				return nil, err
			}
			item.Amount = money.Round(share.Amount.Mul(quote.Rate))
			item.RateID = quote.RateID
		}
		total = total.Add(item.Amount)
		items = append(items, item)
	}

	if !s.policy.Equal(total, amount) {
		return nil, errs.Conflictf("selected shares amount to %s in the payment currency, payment is %s", total, amount)
	}

	txn := &models.Transaction{
		Amount:      amount,
		CurrencyID:  currencyID,
		CreatorID:   actorID,
		Description: "direct settlement",
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}

	return s.Settle(ctx, actorID, txn.ID, items)
}
