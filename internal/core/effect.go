package core

// Effect returns the signed balance delta, in cents, that an operation
// contributes to the account identified by accountID.
//
// Amounts are stored as positive magnitudes; the sign comes from the operation
// type and, for transfers, from which leg the row represents:
//
//	REVENUE on its own account:        +amount
//	EXPENSE on its own account:        -amount
//	TRANSFER outgoing leg:             -amount
//	TRANSFER incoming leg:             +amount
//
// Any other perspective yields zero, so summing Effect over every operation
// that references an account reproduces its balance exactly.
func Effect(op Operation, accountID string) int64 {
	if op.AccountID != accountID {
		return 0
	}
	switch op.Type {
	case OperationRevenue:
		return op.Amount.Cents
	case OperationExpense:
		return -op.Amount.Cents
	case OperationTransfer:
		if op.IsOutgoingLeg() {
			return -op.Amount.Cents
		}
		return op.Amount.Cents
	}
	return 0
}
