package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/calculator"
	"github.com/splitpot/splitpot/internal/middleware"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/service"
)

type percentShare struct {
	UserID  string          `json:"user_id" validate:"required"`
	Percent decimal.Decimal `json:"percent" validate:"required"`
}

type exactShare struct {
	UserID string          `json:"user_id" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type createExpenseRequest struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	CurrencyID  string          `json:"currency_id" validate:"required"`
	GroupID     string          `json:"group_id"`
	Method      string          `json:"split_method" validate:"required,oneof=EQUAL PERCENTAGE UNEQUAL"`

	Participants []string       `json:"participants,omitempty"`
	Percents     []percentShare `json:"percents,omitempty"`
	// Exacts absent means the payer takes the full amount under UNEQUAL.
	Exacts *[]exactShare `json:"exact_shares,omitempty"`
}

type updateExpenseRequest struct {
	Description *string          `json:"description,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	CurrencyID  *string          `json:"currency_id,omitempty"`
	Method      *string          `json:"split_method,omitempty" validate:"omitempty,oneof=EQUAL PERCENTAGE UNEQUAL"`

	Participants []string       `json:"participants,omitempty"`
	Percents     []percentShare `json:"percents,omitempty"`
	Exacts       *[]exactShare  `json:"exact_shares,omitempty"`
}

type participationResponse struct {
	ID            string           `json:"id"`
	UserID        string           `json:"user_id"`
	Amount        decimal.Decimal  `json:"amount"`
	SettledBy     string           `json:"settled_by,omitempty"`
	SettledAmount *decimal.Decimal `json:"settled_amount,omitempty"`
	RateID        string           `json:"rate_id,omitempty"`
}

type expenseResponse struct {
	ID          string                  `json:"id"`
	Description string                  `json:"description"`
	Amount      decimal.Decimal         `json:"amount"`
	CurrencyID  string                  `json:"currency_id"`
	GroupID     string                  `json:"group_id,omitempty"`
	PayerID     string                  `json:"payer_id"`
	Method      string                  `json:"split_method"`
	Settled     bool                    `json:"settled"`
	CreatedAt   int64                   `json:"created_at"`
	Shares      []participationResponse `json:"shares"`
}

func toExpenseResponse(e *models.Expense, shares []*models.Participation) expenseResponse {
	resp := expenseResponse{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount,
		CurrencyID:  e.CurrencyID,
		GroupID:     e.GroupID,
		PayerID:     e.PayerID,
		Method:      string(e.Method),
		Settled:     e.Settled,
		CreatedAt:   e.CreatedAt,
		Shares:      make([]participationResponse, len(shares)),
	}
	for i, p := range shares {
		resp.Shares[i] = participationResponse{
			ID:            p.ID,
			UserID:        p.UserID,
			Amount:        p.Amount,
			SettledBy:     p.SettledBy,
			SettledAmount: p.SettledAmount,
			RateID:        p.RateID,
		}
	}
	return resp
}

func toShareInputs(participants []string, percents []percentShare, exacts *[]exactShare) service.ShareInputs {
	inputs := service.ShareInputs{Participants: participants}
	for _, p := range percents {
		inputs.Percents = append(inputs.Percents, calculator.PercentShare{UserID: p.UserID, Percent: p.Percent})
	}
	if exacts != nil {
		inputs.Exacts = make([]calculator.ExactShare, 0, len(*exacts))
		for _, e := range *exacts {
			inputs.Exacts = append(inputs.Exacts, calculator.ExactShare{UserID: e.UserID, Amount: e.Amount})
		}
	}
	return inputs
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actorID := middleware.GetUserID(r.Context())
	expense, shares, err := s.expenses.Create(r.Context(), actorID, service.ExpenseInput{
		Description: req.Description,
		Amount:      req.Amount,
		CurrencyID:  req.CurrencyID,
		GroupID:     req.GroupID,
		PayerID:     actorID,
		Method:      models.SplitMethod(req.Method),
		Shares:      toShareInputs(req.Participants, req.Percents, req.Exacts),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toExpenseResponse(expense, shares))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, shares, err := s.expenses.Get(r.Context(), chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseResponse(expense, shares))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req updateExpenseRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	patch := models.ExpensePatch{
		Description: req.Description,
		Amount:      req.Amount,
		CurrencyID:  req.CurrencyID,
	}
	if req.Method != nil {
		method := models.SplitMethod(*req.Method)
		patch.Method = &method
	}

	actorID := middleware.GetUserID(r.Context())
	expense, shares, err := s.expenses.Update(r.Context(), actorID, chi.URLParam(r, "expenseID"),
		patch, toShareInputs(req.Participants, req.Percents, req.Exacts))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toExpenseResponse(expense, shares))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	if err := s.expenses.Delete(r.Context(), actorID, chi.URLParam(r, "expenseID")); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}
