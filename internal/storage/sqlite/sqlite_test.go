package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedUser(t *testing.T, store *SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "Test User", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

func seedCurrency(t *testing.T, store *SQLiteStore, code string) *models.Currency {
	t.Helper()
	currency := &models.Currency{Code: code, Name: code + " Test"}
	if err := store.CreateCurrency(context.Background(), currency); err != nil {
		t.Fatalf("failed to seed currency %s: %v", code, err)
	}
	return currency
}

// seedExpense creates an expense with one share per (userID, amount) pair
// and returns the expense and its shares in insertion order.
func seedExpense(t *testing.T, store *SQLiteStore, payer, currencyID, total string, shares map[string]string, order []string) (*models.Expense, []*models.Participation) {
	t.Helper()
	expense := &models.Expense{
		Description: "test expense",
		Amount:      dec(total),
		CurrencyID:  currencyID,
		PayerID:     payer,
		Method:      models.SplitUnequal,
	}
	participations := make([]*models.Participation, 0, len(shares))
	for _, userID := range order {
		participations = append(participations, &models.Participation{
			UserID: userID,
			Amount: dec(shares[userID]),
		})
	}
	if err := store.CreateExpense(context.Background(), expense, participations); err != nil {
		t.Fatalf("failed to seed expense: %v", err)
	}
	return expense, participations
}

func TestUserRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store, "alice@example.com")

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail id = %s, want %s", byEmail.ID, user.ID)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if byID.Email != "alice@example.com" {
		t.Errorf("GetUserByID email = %s, want alice@example.com", byID.Email)
	}

	dup := models.NewUser("alice@example.com", "Other", "hash2")
	if err := store.CreateUser(ctx, dup); !errs.IsConflict(err) {
		t.Errorf("duplicate email error = %v, want ConflictError", err)
	}

	if _, err := store.GetUserByID(ctx, "nope"); !errs.IsNotFound(err) {
		t.Errorf("unknown user error = %v, want NotFoundError", err)
	}
}

func TestGroupMembers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	carol := seedUser(t, store, "carol@example.com")

	group := &models.Group{Name: "trip", Members: []string{alice.ID, bob.ID}}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	got, err := store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.Members) != 2 {
		t.Fatalf("group has %d members, want 2", len(got.Members))
	}

	// Re-adding an existing member is a no-op.
	if err := store.AddGroupMembers(ctx, group.ID, []string{bob.ID, carol.ID}); err != nil {
		t.Fatalf("AddGroupMembers failed: %v", err)
	}
	got, err = store.GetGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if len(got.Members) != 3 {
		t.Errorf("group has %d members after add, want 3", len(got.Members))
	}

	groups, err := store.ListGroupsForUser(ctx, carol.ID)
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != group.ID {
		t.Errorf("ListGroupsForUser = %v, want just %s", groups, group.ID)
	}
}

func TestFindLatestRate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	usd := seedCurrency(t, store, "USD")
	eur := seedCurrency(t, store, "EUR")

	old := &models.ConversionRate{FromCurrencyID: usd.ID, ToCurrencyID: eur.ID, Rate: dec("0.80"), CreatedAt: 1000}
	newer := &models.ConversionRate{FromCurrencyID: usd.ID, ToCurrencyID: eur.ID, Rate: dec("0.90"), CreatedAt: 2000}
	for _, r := range []*models.ConversionRate{old, newer} {
		if err := store.CreateRate(ctx, r); err != nil {
			t.Fatalf("CreateRate failed: %v", err)
		}
	}

	latest, err := store.FindLatestRate(ctx, usd.ID, eur.ID)
	if err != nil {
		t.Fatalf("FindLatestRate failed: %v", err)
	}
	if latest.ID != newer.ID {
		t.Errorf("latest rate = %s, want %s", latest.ID, newer.ID)
	}

	// The lookup is direction-exact; the reverse pair has no rates.
	if _, err := store.FindLatestRate(ctx, eur.ID, usd.ID); !errs.IsNotFound(err) {
		t.Errorf("reverse lookup error = %v, want NotFoundError", err)
	}

	// Equal timestamps break toward the later insertion.
	tied := &models.ConversionRate{FromCurrencyID: usd.ID, ToCurrencyID: eur.ID, Rate: dec("0.95"), CreatedAt: 2000}
	if err := store.CreateRate(ctx, tied); err != nil {
		t.Fatalf("CreateRate failed: %v", err)
	}
	latest, err = store.FindLatestRate(ctx, usd.ID, eur.ID)
	if err != nil {
		t.Fatalf("FindLatestRate failed: %v", err)
	}
	if latest.ID != tied.ID {
		t.Errorf("tied latest rate = %s, want %s", latest.ID, tied.ID)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	usd := seedCurrency(t, store, "USD")

	expense, shares := seedExpense(t, store, alice.ID, usd.ID, "100.00",
		map[string]string{alice.ID: "60.00", bob.ID: "40.00"}, []string{alice.ID, bob.ID})

	got, err := store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if !got.Amount.Equal(dec("100.00")) || got.Settled {
		t.Errorf("expense = amount %s settled %v, want 100.00 unsettled", got.Amount, got.Settled)
	}

	listed, err := store.ListParticipations(ctx, expense.ID)
	if err != nil {
		t.Fatalf("ListParticipations failed: %v", err)
	}
	if len(listed) != 2 || !listed[0].Amount.Equal(dec("60.00")) {
		t.Fatalf("participations = %v, want alice 60.00 first", listed)
	}

	// Update fully replaces the shares.
	expense.Amount = dec("90.00")
	replacement := []*models.Participation{
		{UserID: alice.ID, Amount: dec("45.00")},
		{UserID: bob.ID, Amount: dec("45.00")},
	}
	if err := store.UpdateExpense(ctx, expense, replacement); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	listed, err = store.ListParticipations(ctx, expense.ID)
	if err != nil {
		t.Fatalf("ListParticipations failed: %v", err)
	}
	if len(listed) != 2 || !listed[0].Amount.Equal(dec("45.00")) {
		t.Fatalf("participations after update = %v, want two 45.00 shares", listed)
	}
	if _, err := store.GetParticipation(ctx, shares[0].ID); !errs.IsNotFound(err) {
		t.Errorf("old share still present after update, error = %v", err)
	}

	involving, err := store.ListExpensesInvolvingUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListExpensesInvolvingUser failed: %v", err)
	}
	if len(involving) != 1 || involving[0].ID != expense.ID {
		t.Errorf("ListExpensesInvolvingUser = %v, want just %s", involving, expense.ID)
	}

	// Delete removes the expense and all its shares together.
	if err := store.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}
	if _, err := store.GetExpense(ctx, expense.ID); !errs.IsNotFound(err) {
		t.Errorf("expense still present after delete, error = %v", err)
	}
	if _, err := store.GetParticipation(ctx, listed[0].ID); !errs.IsNotFound(err) {
		t.Errorf("share still present after delete, error = %v", err)
	}
	if err := store.DeleteExpense(ctx, expense.ID); !errs.IsNotFound(err) {
		t.Errorf("second delete error = %v, want NotFoundError", err)
	}
}

func TestApplySettlement(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	usd := seedCurrency(t, store, "USD")

	expense, shares := seedExpense(t, store, alice.ID, usd.ID, "100.00",
		map[string]string{alice.ID: "60.00", bob.ID: "40.00"}, []string{alice.ID, bob.ID})

	txn1 := &models.Transaction{Amount: dec("60.00"), CurrencyID: usd.ID, CreatorID: alice.ID}
	txn2 := &models.Transaction{Amount: dec("40.00"), CurrencyID: usd.ID, CreatorID: bob.ID}
	for _, txn := range []*models.Transaction{txn1, txn2} {
		if err := store.CreateTransaction(ctx, txn); err != nil {
			t.Fatalf("CreateTransaction failed: %v", err)
		}
	}

	// Settle the first share; the expense stays unsettled while the second
	// share is outstanding.
	outcomes, err := store.ApplySettlement(ctx, txn1.ID, []storage.ShareSettlement{
		{ParticipationID: shares[0].ID, SettledAmount: dec("60.00")},
	})
	if err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err != nil {
		t.Fatalf("outcomes = %v, want one success", outcomes)
	}

	got, err := store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if got.Settled {
		t.Error("expense settled with one share outstanding")
	}

	// A different transaction cannot claim an already-settled share.
	outcomes, err = store.ApplySettlement(ctx, txn2.ID, []storage.ShareSettlement{
		{ParticipationID: shares[0].ID, SettledAmount: dec("60.00")},
	})
	if err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	if !errs.IsConflict(outcomes[0].Err) {
		t.Errorf("double settlement outcome = %v, want ConflictError", outcomes[0].Err)
	}
	share, err := store.GetParticipation(ctx, shares[0].ID)
	if err != nil {
		t.Fatalf("GetParticipation failed: %v", err)
	}
	if share.SettledBy != txn1.ID {
		t.Errorf("share settled_by = %s, want original transaction %s", share.SettledBy, txn1.ID)
	}

	// Re-settling with the same transaction is idempotent.
	outcomes, err = store.ApplySettlement(ctx, txn1.ID, []storage.ShareSettlement{
		{ParticipationID: shares[0].ID, SettledAmount: dec("60.00")},
	})
	if err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	if outcomes[0].Err != nil {
		t.Errorf("idempotent re-settle outcome = %v, want success", outcomes[0].Err)
	}

	// A missing participation fails per item; the valid share in the same
	// batch still settles.
	outcomes, err = store.ApplySettlement(ctx, txn2.ID, []storage.ShareSettlement{
		{ParticipationID: "nope", SettledAmount: dec("1.00")},
		{ParticipationID: shares[1].ID, SettledAmount: dec("40.00")},
	})
	if err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	if !errs.IsNotFound(outcomes[0].Err) {
		t.Errorf("missing participation outcome = %v, want NotFoundError", outcomes[0].Err)
	}
	if outcomes[1].Err != nil {
		t.Errorf("valid share outcome = %v, want success", outcomes[1].Err)
	}

	// All shares settled: the derived flag flips.
	got, err = store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if !got.Settled {
		t.Error("expense not settled with every share settled")
	}
}

func TestApplySettlementRecordsRate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	usd := seedCurrency(t, store, "USD")
	eur := seedCurrency(t, store, "EUR")

	rate := &models.ConversionRate{FromCurrencyID: usd.ID, ToCurrencyID: eur.ID, Rate: dec("0.90"), CreatedAt: 1234}
	if err := store.CreateRate(ctx, rate); err != nil {
		t.Fatalf("CreateRate failed: %v", err)
	}

	_, shares := seedExpense(t, store, alice.ID, usd.ID, "100.00",
		map[string]string{bob.ID: "100.00"}, []string{bob.ID})

	txn := &models.Transaction{Amount: dec("90.00"), CurrencyID: eur.ID, CreatorID: bob.ID}
	if err := store.CreateTransaction(ctx, txn); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	outcomes, err := store.ApplySettlement(ctx, txn.ID, []storage.ShareSettlement{
		{ParticipationID: shares[0].ID, SettledAmount: dec("90.00"), RateID: rate.ID, RateTimestamp: rate.CreatedAt},
	})
	if err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}
	if outcomes[0].Err != nil {
		t.Fatalf("outcome = %v, want success", outcomes[0].Err)
	}

	share, err := store.GetParticipation(ctx, shares[0].ID)
	if err != nil {
		t.Fatalf("GetParticipation failed: %v", err)
	}
	if share.RateID != rate.ID || share.RateTimestamp != 1234 {
		t.Errorf("share rate = %s at %d, want %s at 1234", share.RateID, share.RateTimestamp, rate.ID)
	}
	if share.SettledAmount == nil || !share.SettledAmount.Equal(dec("90.00")) {
		t.Errorf("share settled amount = %v, want 90.00", share.SettledAmount)
	}
}

func TestRecomputeExpenseSettled(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	usd := seedCurrency(t, store, "USD")

	expense, shares := seedExpense(t, store, alice.ID, usd.ID, "50.00",
		map[string]string{bob.ID: "50.00"}, []string{bob.ID})

	txn := &models.Transaction{Amount: dec("50.00"), CurrencyID: usd.ID, CreatorID: bob.ID}
	if err := store.CreateTransaction(ctx, txn); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := store.ApplySettlement(ctx, txn.ID, []storage.ShareSettlement{
		{ParticipationID: shares[0].ID, SettledAmount: dec("50.00")},
	}); err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}

	// Force the stored flag out of sync, then recompute.
	if _, err := store.db.ExecContext(ctx, "UPDATE expenses SET settled = 0 WHERE id = ?", expense.ID); err != nil {
		t.Fatalf("failed to desync flag: %v", err)
	}
	settled, err := store.RecomputeExpenseSettled(ctx, expense.ID)
	if err != nil {
		t.Fatalf("RecomputeExpenseSettled failed: %v", err)
	}
	if !settled {
		t.Error("recompute did not restore settled = true")
	}

	if _, err := store.RecomputeExpenseSettled(ctx, "nope"); !errs.IsNotFound(err) {
		t.Errorf("unknown expense error = %v, want NotFoundError", err)
	}
}

func TestRecomputeSettledZeroShares(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, store, "alice@example.com")
	bob := seedUser(t, store, "bob@example.com")
	usd := seedCurrency(t, store, "USD")

	// A zero-amount share counts as settled from the start.
	expense, shares := seedExpense(t, store, alice.ID, usd.ID, "50.00",
		map[string]string{alice.ID: "0.00", bob.ID: "50.00"}, []string{alice.ID, bob.ID})

	settled, err := store.RecomputeExpenseSettled(ctx, expense.ID)
	if err != nil {
		t.Fatalf("RecomputeExpenseSettled failed: %v", err)
	}
	if settled {
		t.Error("expense settled while a nonzero share is outstanding")
	}

	txn := &models.Transaction{Amount: dec("50.00"), CurrencyID: usd.ID, CreatorID: bob.ID}
	if err := store.CreateTransaction(ctx, txn); err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if _, err := store.ApplySettlement(ctx, txn.ID, []storage.ShareSettlement{
		{ParticipationID: shares[1].ID, SettledAmount: dec("50.00")},
	}); err != nil {
		t.Fatalf("ApplySettlement failed: %v", err)
	}

	got, err := store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if !got.Settled {
		t.Error("expense not settled; the zero share should not block it")
	}
}
