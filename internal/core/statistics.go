package core

// Statistics is a read-only aggregation over an account's operations inside a
// trailing window. It carries no invariant and is recomputed on demand.
type Statistics struct {
	TotalRevenue       Money
	TotalExpense       Money
	NetChange          Money
	TransactionCount   int
	AverageTransaction Money
}

// DefaultStatisticsWindowDays is the trailing window used when the caller does
// not ask for a specific one.
const DefaultStatisticsWindowDays = 30

// ComputeStatistics aggregates the operations dated within windowDays before
// asOf (inclusive). Revenue and expense totals cover REVENUE and EXPENSE
// operations only; transfers still count toward the transaction count and the
// average transaction size denominator, matching the account detail view of
// the journal.
func ComputeStatistics(ops []Operation, asOf Date, windowDays int) Statistics {
	if windowDays <= 0 {
		windowDays = DefaultStatisticsWindowDays
	}
	cutoff := asOf.AddDate(0, 0, -windowDays)

	var stats Statistics
	var volume int64
	for _, op := range ops {
		if op.Date.Before(cutoff) || op.Date.After(asOf.Time) {
			continue
		}
		stats.TransactionCount++
		switch op.Type {
		case OperationRevenue:
			stats.TotalRevenue.Cents += op.Amount.Cents
			volume += op.Amount.Cents
		case OperationExpense:
			stats.TotalExpense.Cents += op.Amount.Cents
			volume += op.Amount.Cents
		}
	}
	stats.NetChange.Cents = stats.TotalRevenue.Cents - stats.TotalExpense.Cents
	if stats.TransactionCount > 0 {
		stats.AverageTransaction.Cents = volume / int64(stats.TransactionCount)
	}
	return stats
}
