package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
)

const expenseColumns = "id, description, amount, currency_id, group_id, payer_id, split_method, settled, created_at"

const participationColumns = "id, expense_id, user_id, amount, settled_by, settled_amount, rate_id, rate_timestamp"

// CreateExpense persists an expense and all its participations atomically.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, shares []*models.Participation) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertExpense(ctx, tx, expense); err != nil {
		return err
	}
	if err := insertParticipations(ctx, tx, expense.ID, shares); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateExpense rewrites the expense row and fully replaces its shares in
// one atomic write.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense, shares []*models.Participation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET description = ?, amount = ?, currency_id = ?, group_id = ?,
		 payer_id = ?, split_method = ?, settled = ? WHERE id = ?`,
		expense.Description, storeAmount(expense.Amount), expense.CurrencyID, nullable(expense.GroupID),
		expense.PayerID, string(expense.Method), boolToInt(expense.Settled), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("expense", expense.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM participations WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete old participations: %w", err)
	}
	if err := insertParticipations(ctx, tx, expense.ID, shares); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes the participations first and then the expense,
// inside one transaction, so the cascade order is explicit.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM participations WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete participations: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("expense", expenseID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID)
	expense, err := scanExpense(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all expenses owned by the group.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY created_at",
		groupID)
}

// ListExpensesInvolvingUser retrieves all expenses where the user is the
// payer or holds a share, across groups and direct expenses.
func (s *SQLiteStore) ListExpensesInvolvingUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.listExpenses(ctx,
		`SELECT DISTINCT e.id, e.description, e.amount, e.currency_id, e.group_id, e.payer_id,
		        e.split_method, e.settled, e.created_at
		 FROM expenses e
		 LEFT JOIN participations p ON p.expense_id = e.id
		 WHERE e.payer_id = ? OR p.user_id = ?
		 ORDER BY e.created_at`,
		userID, userID)
}

func (s *SQLiteStore) listExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListParticipations retrieves all shares of one expense.
func (s *SQLiteStore) ListParticipations(ctx context.Context, expenseID string) ([]*models.Participation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+participationColumns+" FROM participations WHERE expense_id = ? ORDER BY rowid",
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	var shares []*models.Participation
	for rows.Next() {
		share, err := scanParticipation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return shares, nil
}

// GetParticipation retrieves a share by ID.
func (s *SQLiteStore) GetParticipation(ctx context.Context, participationID string) (*models.Participation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+participationColumns+" FROM participations WHERE id = ?", participationID)
	share, err := scanParticipation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("participation", participationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation: %w", err)
	}
	return share, nil
}

func insertExpense(ctx context.Context, tx *sql.Tx, expense *models.Expense) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, description, amount, currency_id, group_id, payer_id, split_method, settled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.Description, storeAmount(expense.Amount), expense.CurrencyID,
		nullable(expense.GroupID), expense.PayerID, string(expense.Method),
		boolToInt(expense.Settled), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func insertParticipations(ctx context.Context, tx *sql.Tx, expenseID string, shares []*models.Participation) error {
	for _, share := range shares {
		if share.ID == "" {
			share.ID = uuid.New().String()
		}
		share.ExpenseID = expenseID

		var settledAmount any
		if share.SettledAmount != nil {
			settledAmount = storeAmount(*share.SettledAmount)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO participations (id, expense_id, user_id, amount, settled_by, settled_amount, rate_id, rate_timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			share.ID, share.ExpenseID, share.UserID, storeAmount(share.Amount),
			nullable(share.SettledBy), settledAmount, nullable(share.RateID), nullableInt(share.RateTimestamp),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participation: %w", err)
		}
	}
	return nil
}

// scanExpense reads one expense row via the given Scan function so it works
// for both sql.Row and sql.Rows.
func scanExpense(scan func(dest ...any) error) (*models.Expense, error) {
	expense := &models.Expense{}
	var amountText, method string
	var groupID sql.NullString
	var settled int
	err := scan(&expense.ID, &expense.Description, &amountText, &expense.CurrencyID,
		&groupID, &expense.PayerID, &method, &settled, &expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	expense.Amount, err = scanAmount(amountText)
	if err != nil {
		return nil, err
	}
	expense.GroupID = groupID.String
	expense.Method = models.SplitMethod(method)
	expense.Settled = settled != 0
	return expense, nil
}

func scanParticipation(scan func(dest ...any) error) (*models.Participation, error) {
	share := &models.Participation{}
	var amountText string
	var settledBy, settledAmount, rateID sql.NullString
	var rateTimestamp sql.NullInt64
	err := scan(&share.ID, &share.ExpenseID, &share.UserID, &amountText,
		&settledBy, &settledAmount, &rateID, &rateTimestamp)
	if err != nil {
		return nil, err
	}
	share.Amount, err = scanAmount(amountText)
	if err != nil {
		return nil, err
	}
	share.SettledBy = settledBy.String
	if settledAmount.Valid {
		amt, err := scanAmount(settledAmount.String)
		if err != nil {
			return nil, err
		}
		share.SettledAmount = &amt
	}
	share.RateID = rateID.String
	share.RateTimestamp = rateTimestamp.Int64
	return share, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(i int64) any {
	if i == 0 {
		return nil
	}
	return i
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
