// Package service implements the business operations on top of storage:
// expense creation and update, balance aggregation, settlement processing,
// and the currency/rate ledger.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

// ratePrecision is the scale used when inverting a stored rate.
const ratePrecision = 12

// RateQuote is the answer to a latest-rate lookup. When only the opposite
// direction was on record, Rate is the stored rate's reciprocal and
// Inverted is true; RateID still names the stored rate.
type RateQuote struct {
	RateID    string
	Rate      decimal.Decimal
	CreatedAt int64
	Inverted  bool
}

// CurrencyService manages the currency and conversion-rate ledger.
type CurrencyService struct {
	store storage.Store
}

// NewCurrencyService creates a new CurrencyService.
func NewCurrencyService(store storage.Store) *CurrencyService {
	return &CurrencyService{store: store}
}

// CreateCurrency registers a new currency. The code is normalized to upper
// case and must be unique.
func (s *CurrencyService) CreateCurrency(ctx context.Context, code, name, symbol string) (*models.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, errs.Validationf("currency code is required")
	}
	if name == "" {
		return nil, errs.Validationf("currency name is required")
	}

	currency := &models.Currency{Code: code, Name: name, Symbol: symbol}
	if err := s.store.CreateCurrency(ctx, currency); err != nil {
		return nil, err
	}
	return currency, nil
}

// GetCurrency retrieves a currency by ID.
func (s *CurrencyService) GetCurrency(ctx context.Context, currencyID string) (*models.Currency, error) {
	return s.store.GetCurrency(ctx, currencyID)
}

// ListCurrencies retrieves all currencies.
func (s *CurrencyService) ListCurrencies(ctx context.Context) ([]*models.Currency, error) {
	return s.store.ListCurrencies(ctx)
}

// RecordRate stores a new directional conversion rate. Rates are immutable;
// recording again for the same pair supersedes older rates for live
// conversions without touching settlements that referenced them.
func (s *CurrencyService) RecordRate(ctx context.Context, fromCurrencyID, toCurrencyID string, rate decimal.Decimal) (*models.ConversionRate, error) {
	if fromCurrencyID == toCurrencyID {
		return nil, errs.Validationf("conversion rate requires two distinct currencies")
	}
	if !rate.IsPositive() {
		return nil, errs.Validationf("conversion rate must be positive, got %s", rate)
	}
	if _, err := s.store.GetCurrency(ctx, fromCurrencyID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCurrency(ctx, toCurrencyID); err != nil {
		return nil, err
	}

	record := &models.ConversionRate{
		FromCurrencyID: fromCurrencyID,
		ToCurrencyID:   toCurrencyID,
		Rate:           rate,
	}
	if err := s.store.CreateRate(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// LatestRate answers a rate lookup for from -> to. When no rate was stored
// in that direction, it falls back to the newest reverse rate and reports
// its reciprocal.
func (s *CurrencyService) LatestRate(ctx context.Context, fromCurrencyID, toCurrencyID string) (*RateQuote, error) {
	direct, err := s.store.FindLatestRate(ctx, fromCurrencyID, toCurrencyID)
	if err == nil {
		return &RateQuote{RateID: direct.ID, Rate: direct.Rate, CreatedAt: direct.CreatedAt}, nil
	}
	if !errs.IsNotFound(err) {
		return nil, fmt.Errorf("rate lookup failed: %w", err)
	}

	reverse, err := s.store.FindLatestRate(ctx, toCurrencyID, fromCurrencyID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NotFound("conversion rate", fromCurrencyID+"->"+toCurrencyID)
		}
		return nil, fmt.Errorf("rate lookup failed: %w", err)
	}

	return &RateQuote{
		RateID:    reverse.ID,
		Rate:      decimal.NewFromInt(1).DivRound(reverse.Rate, ratePrecision),
		CreatedAt: reverse.CreatedAt,
		Inverted:  true,
	}, nil
}
