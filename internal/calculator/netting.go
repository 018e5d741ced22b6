package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Edge is one directed debt: Debtor owes Creditor Amount, in a single
// currency the caller keys by.
type Edge struct {
	Debtor   string
	Creditor string
	Amount   decimal.Decimal
}

// Net collapses opposite-direction debts between the same pair into one
// directed edge carrying the absolute net amount. Pairs that net to zero
// are dropped entirely. The result is sorted by debtor then creditor so
// repeated runs over the same input produce identical output.
//
// Currencies never mix here: callers net each currency independently.
func Net(edges []Edge) []Edge {
	type pair struct{ a, b string }

	// owed[pair] is what a owes b minus what b owes a, for a < b.
	owed := make(map[pair]decimal.Decimal)
	for _, e := range edges {
		if e.Debtor == e.Creditor || e.Amount.IsZero() {
			continue
		}
		p := pair{e.Debtor, e.Creditor}
		amt := e.Amount
		if p.a > p.b {
			p = pair{e.Creditor, e.Debtor}
			amt = amt.Neg()
		}
		owed[p] = owed[p].Add(amt)
	}

	result := make([]Edge, 0, len(owed))
	for p, net := range owed {
		switch {
		case net.IsPositive():
			result = append(result, Edge{Debtor: p.a, Creditor: p.b, Amount: net})
		case net.IsNegative():
			result = append(result, Edge{Debtor: p.b, Creditor: p.a, Amount: net.Abs()})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Debtor != result[j].Debtor {
			return result[i].Debtor < result[j].Debtor
		}
		return result[i].Creditor < result[j].Creditor
	})
	return result
}
