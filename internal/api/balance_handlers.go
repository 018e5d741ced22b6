package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/calculator"
	"github.com/splitpot/splitpot/internal/middleware"
)

type debtEdgeResponse struct {
	Debtor   string          `json:"debtor"`
	Creditor string          `json:"creditor"`
	Amount   decimal.Decimal `json:"amount"`
}

type memberBalanceResponse struct {
	UserID string                     `json:"user_id"`
	Net    map[string]decimal.Decimal `json:"net"`
}

type groupBalancesResponse struct {
	GroupID string                        `json:"group_id"`
	Members []memberBalanceResponse       `json:"members"`
	Debts   map[string][]debtEdgeResponse `json:"debts"`
}

type counterpartyResponse struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type currencyPositionResponse struct {
	OwedToUser     decimal.Decimal        `json:"owed_to_user"`
	UserOwes       decimal.Decimal        `json:"user_owes"`
	Net            decimal.Decimal        `json:"net"`
	Counterparties []counterpartyResponse `json:"counterparties"`
}

type groupPositionResponse struct {
	GroupID string                     `json:"group_id"`
	Net     map[string]decimal.Decimal `json:"net"`
}

type userBalancesResponse struct {
	UserID    string                              `json:"user_id"`
	Positions map[string]currencyPositionResponse `json:"positions"`
	Groups    []groupPositionResponse             `json:"groups"`
}

func toEdgeResponses(edges []calculator.Edge) []debtEdgeResponse {
	out := make([]debtEdgeResponse, len(edges))
	for i, e := range edges {
		out[i] = debtEdgeResponse{Debtor: e.Debtor, Creditor: e.Creditor, Amount: e.Amount}
	}
	return out
}

func (s *Server) handleGroupBalances(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "groupID")
	actorID := middleware.GetUserID(r.Context())

	// Membership check doubles as the read-authorization gate.
	if _, err := s.groups.Get(r.Context(), actorID, groupID); err != nil {
		respondError(w, err)
		return
	}

	balances, err := s.balances.AggregateGroup(r.Context(), groupID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := groupBalancesResponse{
		GroupID: balances.GroupID,
		Members: make([]memberBalanceResponse, len(balances.Members)),
		Debts:   make(map[string][]debtEdgeResponse, len(balances.Debts)),
	}
	for i, m := range balances.Members {
		resp.Members[i] = memberBalanceResponse{UserID: m.UserID, Net: m.Net}
	}
	for code, edges := range balances.Debts {
		resp.Debts[code] = toEdgeResponses(edges)
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) handleUserBalances(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())

	balances, err := s.balances.AggregateUser(r.Context(), actorID)
	if err != nil {
		respondError(w, err)
		return
	}

	resp := userBalancesResponse{
		UserID:    balances.UserID,
		Positions: make(map[string]currencyPositionResponse, len(balances.Positions)),
		Groups:    make([]groupPositionResponse, len(balances.Groups)),
	}
	for code, p := range balances.Positions {
		position := currencyPositionResponse{
			OwedToUser:     p.OwedToUser,
			UserOwes:       p.UserOwes,
			Net:            p.Net,
			Counterparties: make([]counterpartyResponse, len(p.Counterparties)),
		}
		for i, c := range p.Counterparties {
			position.Counterparties[i] = counterpartyResponse{UserID: c.UserID, Amount: c.Amount}
		}
		resp.Positions[code] = position
	}
	for i, g := range balances.Groups {
		resp.Groups[i] = groupPositionResponse{GroupID: g.GroupID, Net: g.Net}
	}
	respond(w, http.StatusOK, resp)
}
