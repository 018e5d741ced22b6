package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
)

type createCurrencyRequest struct {
	Code   string `json:"code" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Symbol string `json:"symbol"`
}

type currencyResponse struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

type recordRateRequest struct {
	FromCurrencyID string          `json:"from_currency_id" validate:"required"`
	ToCurrencyID   string          `json:"to_currency_id" validate:"required"`
	Rate           decimal.Decimal `json:"rate" validate:"required"`
}

type rateResponse struct {
	ID             string          `json:"id"`
	FromCurrencyID string          `json:"from_currency_id"`
	ToCurrencyID   string          `json:"to_currency_id"`
	Rate           decimal.Decimal `json:"rate"`
	CreatedAt      int64           `json:"created_at"`
}

type rateQuoteResponse struct {
	RateID    string          `json:"rate_id"`
	Rate      decimal.Decimal `json:"rate"`
	CreatedAt int64           `json:"created_at"`
	Inverted  bool            `json:"inverted"`
}

func toCurrencyResponse(c *models.Currency) currencyResponse {
	return currencyResponse{ID: c.ID, Code: c.Code, Name: c.Name, Symbol: c.Symbol}
}

func (s *Server) handleCreateCurrency(w http.ResponseWriter, r *http.Request) {
	var req createCurrencyRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	currency, err := s.currencies.CreateCurrency(r.Context(), req.Code, req.Name, req.Symbol)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toCurrencyResponse(currency))
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.currencies.ListCurrencies(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]currencyResponse, len(currencies))
	for i, c := range currencies {
		resp[i] = toCurrencyResponse(c)
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) handleRecordRate(w http.ResponseWriter, r *http.Request) {
	var req recordRateRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	rate, err := s.currencies.RecordRate(r.Context(), req.FromCurrencyID, req.ToCurrencyID, req.Rate)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, rateResponse{
		ID:             rate.ID,
		FromCurrencyID: rate.FromCurrencyID,
		ToCurrencyID:   rate.ToCurrencyID,
		Rate:           rate.Rate,
		CreatedAt:      rate.CreatedAt,
	})
}

func (s *Server) handleLatestRate(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondError(w, errs.Validationf("from and to currency ids are required"))
		return
	}

	quote, err := s.currencies.LatestRate(r.Context(), from, to)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, rateQuoteResponse{
		RateID:    quote.RateID,
		Rate:      quote.Rate,
		CreatedAt: quote.CreatedAt,
		Inverted:  quote.Inverted,
	})
}
