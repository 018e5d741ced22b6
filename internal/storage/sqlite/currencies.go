package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
)

// CreateCurrency persists a new currency.
func (s *SQLiteStore) CreateCurrency(ctx context.Context, currency *models.Currency) error {
	if currency.ID == "" {
		currency.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO currencies (id, code, name, symbol) VALUES (?, ?, ?, ?)",
		currency.ID, currency.Code, currency.Name, currency.Symbol,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errs.Conflictf("currency code already exists: %s", currency.Code)
		}
		return fmt.Errorf("failed to insert currency: %w", err)
	}
	return nil
}

// GetCurrency retrieves a currency by ID.
func (s *SQLiteStore) GetCurrency(ctx context.Context, currencyID string) (*models.Currency, error) {
	currency := &models.Currency{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, code, name, symbol FROM currencies WHERE id = ?",
		currencyID,
	).Scan(&currency.ID, &currency.Code, &currency.Name, &currency.Symbol)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("currency", currencyID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency: %w", err)
	}
	return currency, nil
}

// ListCurrencies retrieves all currencies ordered by code.
func (s *SQLiteStore) ListCurrencies(ctx context.Context) ([]*models.Currency, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, code, name, symbol FROM currencies ORDER BY code",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []*models.Currency
	for rows.Next() {
		currency := &models.Currency{}
		if err := rows.Scan(&currency.ID, &currency.Code, &currency.Name, &currency.Symbol); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, currency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate currencies: %w", err)
	}
	return currencies, nil
}

// CreateRate persists a new conversion rate.
func (s *SQLiteStore) CreateRate(ctx context.Context, rate *models.ConversionRate) error {
	if rate.ID == "" {
		rate.ID = uuid.New().String()
	}
	if rate.CreatedAt == 0 {
		rate.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversion_rates (id, from_currency_id, to_currency_id, rate, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rate.ID, rate.FromCurrencyID, rate.ToCurrencyID, rate.Rate.String(), rate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion rate: %w", err)
	}
	return nil
}

// GetRate retrieves a conversion rate by ID.
func (s *SQLiteStore) GetRate(ctx context.Context, rateID string) (*models.ConversionRate, error) {
	return s.scanRate(s.db.QueryRowContext(ctx,
		`SELECT id, from_currency_id, to_currency_id, rate, created_at
		 FROM conversion_rates WHERE id = ?`,
		rateID,
	), rateID)
}

// FindLatestRate retrieves the newest rate for the exact direction
// from -> to. Ties on created_at break toward the later insertion.
func (s *SQLiteStore) FindLatestRate(ctx context.Context, fromCurrencyID, toCurrencyID string) (*models.ConversionRate, error) {
	return s.scanRate(s.db.QueryRowContext(ctx,
		`SELECT id, from_currency_id, to_currency_id, rate, created_at
		 FROM conversion_rates
		 WHERE from_currency_id = ? AND to_currency_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		fromCurrencyID, toCurrencyID,
	), fromCurrencyID+"->"+toCurrencyID)
}

func (s *SQLiteStore) scanRate(row *sql.Row, ref string) (*models.ConversionRate, error) {
	rate := &models.ConversionRate{}
	var rateText string
	err := row.Scan(&rate.ID, &rate.FromCurrencyID, &rate.ToCurrencyID, &rateText, &rate.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("conversion rate", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion rate: %w", err)
	}
	rate.Rate, err = scanAmount(rateText)
	if err != nil {
		return nil, err
	}
	return rate, nil
}
