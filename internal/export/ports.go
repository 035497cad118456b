package export

import (
	"context"

	"stashguard/internal/core"
)

// Record is one exported operation row, denormalized with display names so
// the target needs no access to the ledger database.
type Record struct {
	Operation    core.Operation
	AccountName  string
	CategoryName string
}

// Ports for outbound export adapters.
type (
	// Writer upserts an operation row in the export target, keyed by the
	// operation id. Writing the same id twice replaces the row.
	Writer interface {
		Upsert(ctx context.Context, rec Record) error
	}

	// Remover deletes an operation row from the export target. Removing an
	// id that was never exported is not an error.
	Remover interface {
		Remove(ctx context.Context, operationID string) error
	}

	// Target combines both directions of the export pipeline.
	Target interface {
		Writer
		Remover
	}
)
