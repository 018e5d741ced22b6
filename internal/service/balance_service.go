package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/calculator"
	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/storage"
)

// MemberBalance is one group member's net position, per currency code.
// Positive means the member is owed money. Members with no involvement get
// a present-but-empty record.
type MemberBalance struct {
	UserID string
	Net    map[string]decimal.Decimal
}

// GroupBalances is the simplified debt view of one group: netted pairwise
// edges per currency code, plus every member's net position. Currencies
// never mix in a single figure.
type GroupBalances struct {
	GroupID string
	Members []MemberBalance
	Debts   map[string][]calculator.Edge
}

// CounterpartyBalance is a user's netted position against one other user
// in one currency. Positive means the counterparty owes the user.
type CounterpartyBalance struct {
	UserID string
	Amount decimal.Decimal
}

// CurrencyPosition is a user's global position in one currency.
type CurrencyPosition struct {
	OwedToUser     decimal.Decimal
	UserOwes       decimal.Decimal
	Net            decimal.Decimal
	Counterparties []CounterpartyBalance
}

// GroupPosition is a user's net position restricted to one group's
// expenses, per currency code.
type GroupPosition struct {
	GroupID string
	Net     map[string]decimal.Decimal
}

// UserBalances is a user's global balance view across all groups and
// direct expenses.
type UserBalances struct {
	UserID    string
	Positions map[string]CurrencyPosition
	Groups    []GroupPosition
}

// BalanceService derives simplified net balances from stored expenses,
// shares and settlements. It only reads; a slightly stale view against
// concurrent settlements is acceptable.
type BalanceService struct {
	store storage.Store
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(store storage.Store) *BalanceService {
	return &BalanceService{store: store}
}

// AggregateGroup computes the netted pairwise debts of one group,
// per currency, and each member's net position.
func (s *BalanceService) AggregateGroup(ctx context.Context, groupID string) (*GroupBalances, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	raw, err := s.outstandingEdges(ctx, expenses)
	if err != nil {
		return nil, err
	}

	debts := make(map[string][]calculator.Edge, len(raw))
	for code, edges := range raw {
		if netted := calculator.Net(edges); len(netted) > 0 {
			debts[code] = netted
		}
	}

	members := make([]MemberBalance, len(group.Members))
	for i, userID := range group.Members {
		members[i] = MemberBalance{UserID: userID, Net: netByCurrency(debts, userID)}
	}

	return &GroupBalances{GroupID: groupID, Members: members, Debts: debts}, nil
}

// AggregateUser computes the user's global position per currency, with a
// per-counterparty breakdown, plus a per-group breakdown of the user's net
// restricted to each group's expenses.
func (s *BalanceService) AggregateUser(ctx context.Context, userID string) (*UserBalances, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesInvolvingUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw, err := s.outstandingEdges(ctx, expenses)
	if err != nil {
		return nil, err
	}

	positions := make(map[string]CurrencyPosition)
	for code, edges := range raw {
		position := CurrencyPosition{
			OwedToUser: decimal.Zero,
			UserOwes:   decimal.Zero,
			Net:        decimal.Zero,
		}
		for _, edge := range calculator.Net(edges) {
			switch userID {
			case edge.Creditor:
				position.OwedToUser = position.OwedToUser.Add(edge.Amount)
				position.Counterparties = append(position.Counterparties,
					CounterpartyBalance{UserID: edge.Debtor, Amount: edge.Amount})
			case edge.Debtor:
				position.UserOwes = position.UserOwes.Add(edge.Amount)
				position.Counterparties = append(position.Counterparties,
					CounterpartyBalance{UserID: edge.Creditor, Amount: edge.Amount.Neg()})
			}
		}
		position.Net = position.OwedToUser.Sub(position.UserOwes)
		sort.Slice(position.Counterparties, func(i, j int) bool {
			return position.Counterparties[i].UserID < position.Counterparties[j].UserID
		})
		positions[code] = position
	}

	groups, err := s.groupBreakdown(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserBalances{UserID: userID, Positions: positions, Groups: groups}, nil
}

// groupBreakdown computes the user's net per group and currency,
// restricted to each group's own expenses. Groups where the user has no
// outstanding position still appear, with an empty map.
func (s *BalanceService) groupBreakdown(ctx context.Context, userID string) ([]GroupPosition, error) {
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	breakdown := make([]GroupPosition, 0, len(groups))
	for _, group := range groups {
		expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			return nil, err
		}
		raw, err := s.outstandingEdges(ctx, expenses)
		if err != nil {
			return nil, err
		}

		net := make(map[string]decimal.Decimal)
		for code, edges := range raw {
			total := decimal.Zero
			for _, edge := range calculator.Net(edges) {
				switch userID {
				case edge.Creditor:
					total = total.Add(edge.Amount)
				case edge.Debtor:
					total = total.Sub(edge.Amount)
				}
			}
			if !total.IsZero() {
				net[code] = total
			}
		}
		breakdown = append(breakdown, GroupPosition{GroupID: group.ID, Net: net})
	}
	return breakdown, nil
}

// outstandingEdges builds the directed debt multigraph of the given
// expenses, keyed by currency code. Expenses whose currency no longer
// exists are skipped with an integrity warning; aggregation is a
// best-effort read over potentially imperfect historical data.
func (s *BalanceService) outstandingEdges(ctx context.Context, expenses []*models.Expense) (map[string][]calculator.Edge, error) {
	currencyCodes := make(map[string]string)
	edges := make(map[string][]calculator.Edge)

	for _, expense := range expenses {
		code, ok := currencyCodes[expense.CurrencyID]
		if !ok {
			currency, err := s.store.GetCurrency(ctx, expense.CurrencyID)
			if errs.IsNotFound(err) {
				slog.Warn("integrity: expense references missing currency, skipping",
					"expense_id", expense.ID, "currency_id", expense.CurrencyID)
				currencyCodes[expense.CurrencyID] = ""
				continue
			}
			if err != nil {
				return nil, err
			}
			code = currency.Code
			currencyCodes[expense.CurrencyID] = code
		}
		if code == "" {
			continue // previously flagged missing currency
		}

		shares, err := s.store.ListParticipations(ctx, expense.ID)
		if err != nil {
			return nil, err
		}
		for _, share := range shares {
			if share.UserID == expense.PayerID {
				continue
			}
			outstanding := shareOutstanding(share)
			if !outstanding.IsPositive() {
				continue
			}
			edges[code] = append(edges[code], calculator.Edge{
				Debtor:   share.UserID,
				Creditor: expense.PayerID,
				Amount:   outstanding,
			})
		}
	}
	return edges, nil
}

// shareOutstanding computes how much of a share is still owed, in the
// expense's currency. A share settled through a currency conversion counts
// as fully covered: the conversion already happened at settlement time and
// no back-conversion is attempted here.
func shareOutstanding(share *models.Participation) decimal.Decimal {
	if share.SettledBy == "" {
		return share.Amount
	}
	if share.RateID != "" || share.SettledAmount == nil {
		return decimal.Zero
	}
	return share.Amount.Sub(*share.SettledAmount)
}

// netByCurrency sums a user's signed position over netted edges.
func netByCurrency(debts map[string][]calculator.Edge, userID string) map[string]decimal.Decimal {
	net := make(map[string]decimal.Decimal)
	for code, edges := range debts {
		total := decimal.Zero
		for _, edge := range edges {
			switch userID {
			case edge.Creditor:
				total = total.Add(edge.Amount)
			case edge.Debtor:
				total = total.Sub(edge.Amount)
			}
		}
		if !total.IsZero() {
			net[code] = total
		}
	}
	return net
}
