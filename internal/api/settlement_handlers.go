package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/middleware"
	"github.com/splitpot/splitpot/internal/service"
)

type createTransactionRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	CurrencyID  string          `json:"currency_id" validate:"required"`
	Description string          `json:"description"`
}

type transactionResponse struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	CurrencyID  string          `json:"currency_id"`
	CreatorID   string          `json:"creator_id"`
	Description string          `json:"description,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

type settleItemRequest struct {
	ParticipationID string          `json:"participation_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	RateID          string          `json:"rate_id"`
}

type settleRequest struct {
	TransactionID string              `json:"transaction_id" validate:"required"`
	Items         []settleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type settleDirectRequest struct {
	DebtorID         string          `json:"debtor_id" validate:"required"`
	CreditorID       string          `json:"creditor_id" validate:"required"`
	Amount           decimal.Decimal `json:"amount" validate:"required"`
	CurrencyID       string          `json:"currency_id" validate:"required"`
	ParticipationIDs []string        `json:"participation_ids" validate:"required,min=1"`
}

type itemResultResponse struct {
	ParticipationID string `json:"participation_id"`
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
}

type settlementResponse struct {
	TransactionID string               `json:"transaction_id"`
	Items         []itemResultResponse `json:"items"`
}

func toSettlementResponse(result *service.SettlementResult) settlementResponse {
	resp := settlementResponse{
		TransactionID: result.TransactionID,
		Items:         make([]itemResultResponse, len(result.Items)),
	}
	for i, item := range result.Items {
		resp.Items[i] = itemResultResponse{
			ParticipationID: item.ParticipationID,
			Status:          string(item.Status),
			Reason:          item.Reason,
		}
	}
	return resp
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actorID := middleware.GetUserID(r.Context())
	txn, err := s.settlements.CreateTransaction(r.Context(), actorID, req.Amount, req.CurrencyID, req.Description)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, transactionResponse{
		ID:          txn.ID,
		Amount:      txn.Amount,
		CurrencyID:  txn.CurrencyID,
		CreatorID:   txn.CreatorID,
		Description: txn.Description,
		CreatedAt:   txn.CreatedAt,
	})
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	items := make([]service.SettleItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SettleItem{
			ParticipationID: item.ParticipationID,
			Amount:          item.Amount,
			RateID:          item.RateID,
		}
	}

	actorID := middleware.GetUserID(r.Context())
	result, err := s.settlements.Settle(r.Context(), actorID, req.TransactionID, items)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toSettlementResponse(result))
}

func (s *Server) handleSettleDirect(w http.ResponseWriter, r *http.Request) {
	var req settleDirectRequest
	if err := s.decode(r, &req); err != nil {
		respondError(w, err)
		return
	}

	actorID := middleware.GetUserID(r.Context())
	result, err := s.settlements.SettleDirectPayment(r.Context(), actorID,
		req.DebtorID, req.CreditorID, req.Amount, req.CurrencyID, req.ParticipationIDs)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toSettlementResponse(result))
}
