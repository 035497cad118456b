package core

import "testing"

func op(id string, t OperationType, cents int64, date Date) Operation {
	o := Operation{
		ID:        id,
		AccountID: "acc-a",
		Type:      t,
		Amount:    Money{Cents: cents},
		Date:      date,
	}
	if t == OperationTransfer {
		o.LinkedOperationID = id
		o.ToAccountID = "acc-b"
	}
	return o
}

func TestComputeStatistics(t *testing.T) {
	asOf := NewDate(2026, 9, 1)

	ops := []Operation{
		op("r1", OperationRevenue, 10000, NewDate(2026, 8, 30)),
		op("r2", OperationRevenue, 5000, NewDate(2026, 8, 10)),
		op("e1", OperationExpense, 2500, NewDate(2026, 8, 20)),
		op("t1", OperationTransfer, 4000, NewDate(2026, 8, 25)),
		op("old", OperationRevenue, 99999, NewDate(2026, 7, 1)), // outside window
		op("future", OperationExpense, 99999, NewDate(2026, 9, 2)),
	}

	stats := ComputeStatistics(ops, asOf, 30)

	if stats.TotalRevenue.Cents != 15000 {
		t.Errorf("TotalRevenue = %d, want 15000", stats.TotalRevenue.Cents)
	}
	if stats.TotalExpense.Cents != 2500 {
		t.Errorf("TotalExpense = %d, want 2500", stats.TotalExpense.Cents)
	}
	if stats.NetChange.Cents != 12500 {
		t.Errorf("NetChange = %d, want 12500", stats.NetChange.Cents)
	}
	// Transfers count as transactions but contribute nothing to volume.
	if stats.TransactionCount != 4 {
		t.Errorf("TransactionCount = %d, want 4", stats.TransactionCount)
	}
	if stats.AverageTransaction.Cents != (15000+2500)/4 {
		t.Errorf("AverageTransaction = %d, want %d", stats.AverageTransaction.Cents, (15000+2500)/4)
	}
}

func TestComputeStatisticsEmptyWindow(t *testing.T) {
	stats := ComputeStatistics(nil, NewDate(2026, 9, 1), 30)
	if stats.TransactionCount != 0 || stats.AverageTransaction.Cents != 0 {
		t.Errorf("empty journal should produce zero statistics, got %+v", stats)
	}
}

func TestComputeStatisticsDefaultWindow(t *testing.T) {
	asOf := NewDate(2026, 9, 1)
	ops := []Operation{
		op("in", OperationRevenue, 100, NewDate(2026, 8, 15)),
		op("out", OperationRevenue, 200, NewDate(2026, 6, 1)),
	}

	stats := ComputeStatistics(ops, asOf, 0)
	if stats.TotalRevenue.Cents != 100 {
		t.Errorf("default window should cover the trailing 30 days only, got %d", stats.TotalRevenue.Cents)
	}
}
