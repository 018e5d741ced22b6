package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

// CreateTransaction persists a new payment record.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if txn.CreatedAt == 0 {
		txn.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, amount, currency_id, creator_id, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		txn.ID, storeAmount(txn.Amount), txn.CurrencyID, txn.CreatorID, txn.Description, txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, txnID string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	var amountText string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, amount, currency_id, creator_id, description, created_at
		 FROM transactions WHERE id = ?`,
		txnID,
	).Scan(&txn.ID, &amountText, &txn.CurrencyID, &txn.CreatorID, &txn.Description, &txn.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("transaction", txnID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	txn.Amount, err = scanAmount(amountText)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ApplySettlement claims each share for txnID and recomputes the settled
// flag of every touched expense, all inside one database transaction.
//
// The claim is a compare-and-set: the UPDATE only matches while settled_by
// is null or already equals txnID, so two transactions can never both
// succeed in claiming the same share. A share claimed by a different
// transaction produces a ConflictError in its outcome; the remaining
// shares still commit together.
func (s *SQLiteStore) ApplySettlement(ctx context.Context, txnID string, updates []storage.ShareSettlement) ([]storage.ShareOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	outcomes := make([]storage.ShareOutcome, 0, len(updates))
	touched := make(map[string]bool)

	for _, u := range updates {
		outcome := storage.ShareOutcome{ParticipationID: u.ParticipationID}

		var expenseID string
		var settledBy sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT expense_id, settled_by FROM participations WHERE id = ?",
			u.ParticipationID,
		).Scan(&expenseID, &settledBy)
		switch {
		case err == sql.ErrNoRows:
			outcome.Err = errs.NotFound("participation", u.ParticipationID)
			outcomes = append(outcomes, outcome)
			continue
		case err != nil:
			return nil, fmt.Errorf("failed to read participation: %w", err)
		}

		if settledBy.Valid && settledBy.String != txnID {
			outcome.Err = errs.Conflictf("participation %s already settled by transaction %s",
				u.ParticipationID, settledBy.String)
			outcomes = append(outcomes, outcome)
			continue
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE participations
			 SET settled_by = ?, settled_amount = ?, rate_id = ?, rate_timestamp = ?
			 WHERE id = ? AND (settled_by IS NULL OR settled_by = ?)`,
			txnID, storeAmount(u.SettledAmount), nullable(u.RateID), nullableInt(u.RateTimestamp),
			u.ParticipationID, txnID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to settle participation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			outcome.Err = errs.Conflictf("participation %s claimed concurrently", u.ParticipationID)
			outcomes = append(outcomes, outcome)
			continue
		}

		touched[expenseID] = true
		outcomes = append(outcomes, outcome)
	}

	// Recompute the settled flag of every touched expense from the state
	// of all its participations, not just the ones settled here.
	for expenseID := range touched {
		if err := recomputeSettledTx(ctx, tx, expenseID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return outcomes, nil
}

// RecomputeExpenseSettled re-derives the expense's settled flag from all
// its participations and returns the new value.
func (s *SQLiteStore) RecomputeExpenseSettled(ctx context.Context, expenseID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := recomputeSettledTx(ctx, tx, expenseID); err != nil {
		return false, err
	}

	var settled int
	if err := tx.QueryRowContext(ctx, "SELECT settled FROM expenses WHERE id = ?", expenseID).Scan(&settled); err != nil {
		return false, fmt.Errorf("failed to read settled flag: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return settled != 0, nil
}

// recomputeSettledTx derives settled = AND over all participations'
// settled-state. A share with zero amount counts as settled. An expense
// with no shares at all is not settled.
func recomputeSettledTx(ctx context.Context, tx *sql.Tx, expenseID string) error {
	rows, err := tx.QueryContext(ctx,
		"SELECT amount, settled_by FROM participations WHERE expense_id = ?",
		expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to read participations: %w", err)
	}

	total, outstanding := 0, 0
	for rows.Next() {
		var amountText string
		var settledBy sql.NullString
		if err := rows.Scan(&amountText, &settledBy); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan participation: %w", err)
		}
		total++
		amount, err := scanAmount(amountText)
		if err != nil {
			rows.Close()
			return err
		}
		if !settledBy.Valid && !amount.IsZero() {
			outstanding++
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participations: %w", err)
	}

	settled := total > 0 && outstanding == 0
	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET settled = ? WHERE id = ?",
		boolToInt(settled), expenseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settled flag: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errs.NotFound("expense", expenseID)
	}
	return nil
}
