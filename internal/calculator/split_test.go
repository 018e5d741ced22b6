package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitpot/splitpot/internal/errs"
	"github.com/splitpot/splitpot/internal/models"
	"github.com/splitpot/splitpot/internal/money"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func pct(userID, percent string) PercentShare {
	return PercentShare{UserID: userID, Percent: dec(percent)}
}

func exact(userID, amount string) ExactShare {
	return ExactShare{UserID: userID, Amount: dec(amount)}
}

func TestComputeShares(t *testing.T) {
	engine := NewEngine(money.DefaultPolicy())

	tests := []struct {
		name    string
		input   SplitInput
		want    []Share
		wantErr bool
	}{
		{
			name: "equal split with residual on first participant",
			input: SplitInput{
				Amount:       dec("100.00"),
				Method:       models.SplitEqual,
				Participants: []string{"alice", "bob", "carol"},
			},
			want: []Share{
				{UserID: "alice", Amount: dec("33.34")},
				{UserID: "bob", Amount: dec("33.33")},
				{UserID: "carol", Amount: dec("33.33")},
			},
		},
		{
			name: "equal split divides evenly",
			input: SplitInput{
				Amount:       dec("90.00"),
				Method:       models.SplitEqual,
				Participants: []string{"alice", "bob", "carol"},
			},
			want: []Share{
				{UserID: "alice", Amount: dec("30.00")},
				{UserID: "bob", Amount: dec("30.00")},
				{UserID: "carol", Amount: dec("30.00")},
			},
		},
		{
			name: "equal split single participant",
			input: SplitInput{
				Amount:       dec("10.01"),
				Method:       models.SplitEqual,
				Participants: []string{"alice"},
			},
			want: []Share{{UserID: "alice", Amount: dec("10.01")}},
		},
		{
			name: "equal split rejects empty participant list",
			input: SplitInput{
				Amount: dec("10.00"),
				Method: models.SplitEqual,
			},
			wantErr: true,
		},
		{
			name: "equal split rejects duplicate participants",
			input: SplitInput{
				Amount:       dec("10.00"),
				Method:       models.SplitEqual,
				Participants: []string{"alice", "alice"},
			},
			wantErr: true,
		},
		{
			name: "percentage split exact",
			input: SplitInput{
				Amount:   dec("100.00"),
				Method:   models.SplitPercentage,
				Percents: []PercentShare{pct("alice", "60"), pct("bob", "30"), pct("carol", "10")},
			},
			want: []Share{
				{UserID: "alice", Amount: dec("60.00")},
				{UserID: "bob", Amount: dec("30.00")},
				{UserID: "carol", Amount: dec("10.00")},
			},
		},
		{
			name: "percentage split rejects sum of 99",
			input: SplitInput{
				Amount:   dec("100.00"),
				Method:   models.SplitPercentage,
				Percents: []PercentShare{pct("alice", "60"), pct("bob", "30"), pct("carol", "9")},
			},
			wantErr: true,
		},
		{
			name: "percentage rounding residual goes to first share",
			input: SplitInput{
				Amount:   dec("100.00"),
				Method:   models.SplitPercentage,
				Percents: []PercentShare{pct("alice", "33.33"), pct("bob", "33.33"), pct("carol", "33.34")},
			},
			want: []Share{
				{UserID: "alice", Amount: dec("33.33")},
				{UserID: "bob", Amount: dec("33.33")},
				{UserID: "carol", Amount: dec("33.34")},
			},
		},
		{
			name: "percentage rejects zero percent",
			input: SplitInput{
				Amount:   dec("100.00"),
				Method:   models.SplitPercentage,
				Percents: []PercentShare{pct("alice", "0"), pct("bob", "100")},
			},
			wantErr: true,
		},
		{
			name: "percentage rejects over 100",
			input: SplitInput{
				Amount:   dec("100.00"),
				Method:   models.SplitPercentage,
				Percents: []PercentShare{pct("alice", "101")},
			},
			wantErr: true,
		},
		{
			name: "unequal split exact",
			input: SplitInput{
				Amount: dec("50.00"),
				Method: models.SplitUnequal,
				Exacts: []ExactShare{exact("alice", "20.00"), exact("bob", "30.00")},
			},
			want: []Share{
				{UserID: "alice", Amount: dec("20.00")},
				{UserID: "bob", Amount: dec("30.00")},
			},
		},
		{
			name: "unequal split rejects sum mismatch",
			input: SplitInput{
				Amount: dec("50.00"),
				Method: models.SplitUnequal,
				Exacts: []ExactShare{exact("alice", "20.00"), exact("bob", "29.00")},
			},
			wantErr: true,
		},
		{
			name: "unequal split rejects non-positive share",
			input: SplitInput{
				Amount: dec("50.00"),
				Method: models.SplitUnequal,
				Exacts: []ExactShare{exact("alice", "50.00"), exact("bob", "0")},
			},
			wantErr: true,
		},
		{
			name: "unequal split without shares defaults to payer",
			input: SplitInput{
				Amount:  dec("42.00"),
				Method:  models.SplitUnequal,
				PayerID: "alice",
			},
			want: []Share{{UserID: "alice", Amount: dec("42.00")}},
		},
		{
			name: "unequal split with explicit empty list is invalid",
			input: SplitInput{
				Amount: dec("42.00"),
				Method: models.SplitUnequal,
				Exacts: []ExactShare{},
			},
			wantErr: true,
		},
		{
			name: "non-positive amount is invalid",
			input: SplitInput{
				Amount:       dec("0"),
				Method:       models.SplitEqual,
				Participants: []string{"alice"},
			},
			wantErr: true,
		},
		{
			name: "unknown method is invalid",
			input: SplitInput{
				Amount: dec("10.00"),
				Method: models.SplitMethod("HALVSIES"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ComputeShares(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ComputeShares() expected error, got shares %v", got)
				}
				if !errs.IsValidation(err) {
					t.Errorf("ComputeShares() error = %v, want ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeShares() unexpected error: %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("ComputeShares() returned %d shares, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].UserID != tt.want[i].UserID {
					t.Errorf("share %d user = %s, want %s", i, got[i].UserID, tt.want[i].UserID)
				}
				if !got[i].Amount.Equal(tt.want[i].Amount) {
					t.Errorf("share %d amount = %s, want %s", i, got[i].Amount, tt.want[i].Amount)
				}
			}

			// Every strategy must preserve the amount exactly.
			total := decimal.Zero
			for _, share := range got {
				total = total.Add(share.Amount)
			}
			if !total.Equal(tt.input.Amount) {
				t.Errorf("shares sum to %s, want exactly %s", total, tt.input.Amount)
			}
		})
	}
}

func TestComputeSharesEqualResidual(t *testing.T) {
	engine := NewEngine(money.DefaultPolicy())

	// 100.00 over 7: everyone gets the floored base and the whole rounding
	// residual lands on the first participant.
	shares, err := engine.ComputeShares(SplitInput{
		Amount:       dec("100.00"),
		Method:       models.SplitEqual,
		Participants: []string{"a", "b", "c", "d", "e", "f", "g"},
	})
	if err != nil {
		t.Fatalf("ComputeShares() failed: %v", err)
	}

	base := dec("14.28")
	if !shares[0].Amount.Equal(dec("14.32")) {
		t.Errorf("first share = %s, want 14.32 (base plus residual)", shares[0].Amount)
	}
	for i, share := range shares[1:] {
		if !share.Amount.Equal(base) {
			t.Errorf("share %d = %s, want %s", i+1, share.Amount, base)
		}
	}

	total := decimal.Zero
	for _, share := range shares {
		total = total.Add(share.Amount)
	}
	if !total.Equal(dec("100.00")) {
		t.Errorf("shares sum to %s, want exactly 100.00", total)
	}
}

func TestComputeSharesCustomTolerance(t *testing.T) {
	// A looser policy accepts a percentage sum a strict one rejects.
	loose := NewEngine(money.Policy{Tolerance: dec("1")})
	strict := NewEngine(money.DefaultPolicy())

	input := SplitInput{
		Amount:   dec("100.00"),
		Method:   models.SplitPercentage,
		Percents: []PercentShare{pct("alice", "60"), pct("bob", "39.5")},
	}

	if _, err := strict.ComputeShares(input); err == nil {
		t.Error("strict policy should reject percentages summing to 99.5")
	}
	shares, err := loose.ComputeShares(input)
	if err != nil {
		t.Fatalf("loose policy should accept percentages summing to 99.5: %v", err)
	}

	total := decimal.Zero
	for _, share := range shares {
		total = total.Add(share.Amount)
	}
	if !total.Equal(input.Amount) {
		t.Errorf("shares sum to %s, want exactly %s", total, input.Amount)
	}
}
