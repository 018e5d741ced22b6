package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func edge(debtor, creditor, amount string) Edge {
	return Edge{Debtor: debtor, Creditor: creditor, Amount: dec(amount)}
}

func TestNet(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
		want  []Edge
	}{
		{
			name:  "empty input",
			edges: nil,
			want:  []Edge{},
		},
		{
			name:  "single direction passes through",
			edges: []Edge{edge("bob", "alice", "50.00")},
			want:  []Edge{edge("bob", "alice", "50.00")},
		},
		{
			name: "opposite directions collapse to one edge",
			edges: []Edge{
				edge("bob", "alice", "50.00"),
				edge("alice", "bob", "30.00"),
			},
			want: []Edge{edge("bob", "alice", "20.00")},
		},
		{
			name: "pair netting to zero is dropped",
			edges: []Edge{
				edge("bob", "alice", "25.00"),
				edge("alice", "bob", "25.00"),
			},
			want: []Edge{},
		},
		{
			name: "same direction accumulates",
			edges: []Edge{
				edge("bob", "alice", "10.00"),
				edge("bob", "alice", "15.00"),
			},
			want: []Edge{edge("bob", "alice", "25.00")},
		},
		{
			name: "pairs are independent and output is ordered",
			edges: []Edge{
				edge("carol", "alice", "5.00"),
				edge("bob", "alice", "50.00"),
				edge("alice", "bob", "60.00"),
				edge("alice", "carol", "5.00"),
			},
			want: []Edge{edge("alice", "bob", "10.00")},
		},
		{
			name:  "self edge ignored",
			edges: []Edge{edge("alice", "alice", "10.00")},
			want:  []Edge{},
		},
		{
			name:  "zero edge ignored",
			edges: []Edge{edge("bob", "alice", "0")},
			want:  []Edge{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Net(tt.edges)
			if len(got) != len(tt.want) {
				t.Fatalf("Net() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i].Debtor != tt.want[i].Debtor || got[i].Creditor != tt.want[i].Creditor {
					t.Errorf("edge %d = %s->%s, want %s->%s",
						i, got[i].Debtor, got[i].Creditor, tt.want[i].Debtor, tt.want[i].Creditor)
				}
				if !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("edge %d amount = %s, want %s", i, got[i].Amount, tt.want[i].Amount)
				}
			}
		})
	}
}

func TestNetIdempotent(t *testing.T) {
	edges := []Edge{
		edge("bob", "alice", "50.00"),
		edge("alice", "bob", "30.00"),
		edge("carol", "alice", "12.50"),
	}

	once := Net(edges)
	twice := Net(once)
	if len(once) != len(twice) {
		t.Fatalf("Net(Net(x)) changed edge count: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Debtor != twice[i].Debtor || once[i].Creditor != twice[i].Creditor || !once[i].Amount.Equal(twice[i].Amount) {
			t.Errorf("edge %d changed on second pass: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestNetPreservesTotal(t *testing.T) {
	edges := []Edge{
		edge("bob", "alice", "50.00"),
		edge("alice", "bob", "30.00"),
		edge("carol", "bob", "7.25"),
		edge("bob", "carol", "2.25"),
	}

	before := signedPositions(edges)
	after := signedPositions(Net(edges))
	for user, want := range before {
		if got := after[user]; !got.Equal(want) {
			t.Errorf("net position of %s changed: %s -> %s", user, want, got)
		}
	}
}

// signedPositions sums what each user owes minus what they are owed.
func signedPositions(edges []Edge) map[string]decimal.Decimal {
	positions := make(map[string]decimal.Decimal)
	for _, e := range edges {
		positions[e.Debtor] = positions[e.Debtor].Add(e.Amount)
		positions[e.Creditor] = positions[e.Creditor].Sub(e.Amount)
	}
	return positions
}
