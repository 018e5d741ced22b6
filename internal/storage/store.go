// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/models"
)

// ShareSettlement is one participation's settlement write, applied by
// Store.ApplySettlement inside a single database transaction.
type ShareSettlement struct {
	ParticipationID string

	// SettledAmount is expressed in the settling transaction's currency.
	SettledAmount decimal.Decimal

	// RateID and RateTimestamp record the conversion used, when any.
	RateID        string
	RateTimestamp int64
}

// ShareOutcome reports the per-share result of an ApplySettlement call.
// Err is nil when the share was settled (or was already settled by the
// same transaction, which is an idempotent success).
type ShareOutcome struct {
	ParticipationID string
	Err             error
}

// Store defines the persistence interface for the expense ledger.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the service layer.
//
// Multi-row writes (expense creation/update/deletion and settlement) must
// be atomic: a failure partway through leaves no partial shares or
// half-applied settlements.
type Store interface {
	// CreateUser persists a new user. Fails if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email address.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a new group and its member list.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its member list.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMembers adds the given users to the group, ignoring any
	// that are already members.
	AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error

	// ListGroupsForUser retrieves every group the user is a member of.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// CreateCurrency persists a new currency. Fails if the code is taken.
	CreateCurrency(ctx context.Context, currency *models.Currency) error

	// GetCurrency retrieves a currency by ID.
	GetCurrency(ctx context.Context, currencyID string) (*models.Currency, error)

	// ListCurrencies retrieves all currencies ordered by code.
	ListCurrencies(ctx context.Context) ([]*models.Currency, error)

	// CreateRate persists a new conversion rate.
	CreateRate(ctx context.Context, rate *models.ConversionRate) error

	// GetRate retrieves a conversion rate by ID.
	GetRate(ctx context.Context, rateID string) (*models.ConversionRate, error)

	// FindLatestRate retrieves the newest rate recorded for the exact
	// direction from -> to, or a NotFoundError when none exists. Reverse
	// lookup and inversion happen a layer above.
	FindLatestRate(ctx context.Context, fromCurrencyID, toCurrencyID string) (*models.ConversionRate, error)

	// CreateExpense persists an expense together with all its
	// participations in one atomic write.
	CreateExpense(ctx context.Context, expense *models.Expense, shares []*models.Participation) error

	// GetExpense retrieves an expense by ID.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense rewrites the expense row and fully replaces its
	// participations in one atomic write.
	UpdateExpense(ctx context.Context, expense *models.Expense, shares []*models.Participation) error

	// DeleteExpense removes the expense's participations and then the
	// expense itself, inside one atomic write.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup retrieves all expenses owned by the group.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListExpensesInvolvingUser retrieves all expenses where the user is
	// the payer or a participant, across groups and direct expenses.
	ListExpensesInvolvingUser(ctx context.Context, userID string) ([]*models.Expense, error)

	// ListParticipations retrieves all shares of one expense.
	ListParticipations(ctx context.Context, expenseID string) ([]*models.Participation, error)

	// GetParticipation retrieves a share by ID.
	GetParticipation(ctx context.Context, participationID string) (*models.Participation, error)

	// CreateTransaction persists a new payment record.
	CreateTransaction(ctx context.Context, txn *models.Transaction) error

	// GetTransaction retrieves a transaction by ID.
	GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error)

	// ApplySettlement marks shares as settled by the given transaction
	// and recomputes the settled flag of every touched expense, all
	// inside one database transaction. The claim of each share is a
	// compare-and-set on its settled-by column being null (or already
	// equal to txnID, for idempotent retries); a share claimed by a
	// different transaction yields a ConflictError in its outcome while
	// the remaining shares still commit.
	ApplySettlement(ctx context.Context, txnID string, updates []ShareSettlement) ([]ShareOutcome, error)

	// RecomputeExpenseSettled re-derives the expense's settled flag from
	// the current state of all its participations and returns the new
	// value. Used to correct drift.
	RecomputeExpenseSettled(ctx context.Context, expenseID string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
