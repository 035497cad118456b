package core

import "testing"

func TestEffect(t *testing.T) {
	revenue := Operation{
		ID:        "op-1",
		AccountID: "acc-a",
		Type:      OperationRevenue,
		Amount:    Money{Cents: 5000},
	}
	expense := Operation{
		ID:        "op-2",
		AccountID: "acc-a",
		Type:      OperationExpense,
		Amount:    Money{Cents: 1250},
	}
	outgoing := Operation{
		ID:                "op-3",
		AccountID:         "acc-a",
		Type:              OperationTransfer,
		Amount:            Money{Cents: 4000},
		LinkedOperationID: "op-3",
		ToAccountID:       "acc-b",
	}
	incoming := Operation{
		ID:                "op-4",
		AccountID:         "acc-b",
		Type:              OperationTransfer,
		Amount:            Money{Cents: 4000},
		LinkedOperationID: "op-3",
		ToAccountID:       "acc-a",
	}

	tests := []struct {
		name      string
		op        Operation
		accountID string
		want      int64
	}{
		{"revenue credits its account", revenue, "acc-a", 5000},
		{"expense debits its account", expense, "acc-a", -1250},
		{"outgoing transfer leg debits its account", outgoing, "acc-a", -4000},
		{"incoming transfer leg credits its account", incoming, "acc-b", 4000},
		{"foreign perspective yields zero", revenue, "acc-b", 0},
		{"counterparty perspective yields zero", outgoing, "acc-b", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effect(tt.op, tt.accountID); got != tt.want {
				t.Errorf("Effect() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEffectTransferPairNetsToZero(t *testing.T) {
	out := Operation{
		ID:                "pair",
		AccountID:         "acc-a",
		Type:              OperationTransfer,
		Amount:            Money{Cents: 999},
		LinkedOperationID: "pair",
		ToAccountID:       "acc-b",
	}
	in := Operation{
		ID:                "pair-sibling",
		AccountID:         "acc-b",
		Type:              OperationTransfer,
		Amount:            Money{Cents: 999},
		LinkedOperationID: "pair",
		ToAccountID:       "acc-a",
	}

	total := Effect(out, "acc-a") + Effect(in, "acc-b")
	if total != 0 {
		t.Errorf("transfer pair should net to zero across both accounts, got %d", total)
	}
}

func TestIsOutgoingLeg(t *testing.T) {
	out := Operation{ID: "x", Type: OperationTransfer, LinkedOperationID: "x"}
	in := Operation{ID: "y", Type: OperationTransfer, LinkedOperationID: "x"}
	rev := Operation{ID: "z", Type: OperationRevenue}

	if !out.IsOutgoingLeg() {
		t.Error("leg whose id equals the pairing token should be outgoing")
	}
	if in.IsOutgoingLeg() {
		t.Error("sibling leg should not be outgoing")
	}
	if rev.IsOutgoingLeg() {
		t.Error("non-transfer should never be a transfer leg")
	}
}
