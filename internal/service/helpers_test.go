package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/splitpot/splitpot/internal/calculator"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
	"github.com/splitpot/splitpot/internal/storage/sqlite"
)

// testEnv wires every service against a throwaway SQLite store, with a few
// users and currencies pre-registered.
type testEnv struct {
	store       *sqlite.SQLiteStore
	currencies  *CurrencyService
	expenses    *ExpenseService
	balances    *BalanceService
	settlements *SettlementService
	groups      *GroupService

	alice, bob, carol *models.User
	usd, eur          *models.Currency
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	env := &testEnv{store: store}
	env.currencies = NewCurrencyService(store)
	env.expenses = NewExpenseService(store, calculator.NewEngine(money.DefaultPolicy()))
	env.balances = NewBalanceService(store)
	env.settlements = NewSettlementService(store, env.currencies, money.DefaultPolicy())
	env.groups = NewGroupService(store)

	env.alice = models.NewUser("alice@example.com", "Alice", "hash")
	env.bob = models.NewUser("bob@example.com", "Bob", "hash")
	env.carol = models.NewUser("carol@example.com", "Carol", "hash")
	for _, u := range []*models.User{env.alice, env.bob, env.carol} {
		require.NoError(t, store.CreateUser(ctx, u))
	}

	env.usd, err = env.currencies.CreateCurrency(ctx, "USD", "US Dollar", "$")
	require.NoError(t, err)
	env.eur, err = env.currencies.CreateCurrency(ctx, "EUR", "Euro", "€")
	require.NoError(t, err)

	return env
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// createUnequal creates an expense with explicit per-user shares and returns
// it with its participations in input order.
func (e *testEnv) createUnequal(t *testing.T, payerID, currencyID, groupID, total string, exacts []calculator.ExactShare) (*models.Expense, []*models.Participation) {
	t.Helper()
	expense, shares, err := e.expenses.Create(context.Background(), payerID, ExpenseInput{
		Description: "test expense",
		Amount:      dec(total),
		CurrencyID:  currencyID,
		GroupID:     groupID,
		PayerID:     payerID,
		Method:      models.SplitUnequal,
		Shares:      ShareInputs{Exacts: exacts},
	})
	require.NoError(t, err)
	return expense, shares
}

func exact(userID, amount string) calculator.ExactShare {
	return calculator.ExactShare{UserID: userID, Amount: dec(amount)}
}
