// Package worker reconciles committed ledger operations with the external
// export target. It consumes sync messages from AMQP and falls back to a
// pending scan so operations survive lost messages or worker downtime.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stashguard/internal/amqp"
	"stashguard/internal/core"
	"stashguard/internal/export"
	"stashguard/internal/storage"
)

// ExportWorker drives the export pipeline for one target.
type ExportWorker struct {
	repo      *storage.Repository
	target    export.Target
	batchSize int
}

func NewExportWorker(repo *storage.Repository, target export.Target, batchSize int) *ExportWorker {
	return &ExportWorker{
		repo:      repo,
		target:    target,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single operation sync message from AMQP.
func (w *ExportWorker) HandleSyncMessage(ctx context.Context, msg *amqp.OperationSyncMessage) error {
	switch msg.Kind {
	case amqp.KindDelete:
		if err := w.target.Remove(ctx, msg.OperationID); err != nil {
			return fmt.Errorf("remove operation from export target: %w", err)
		}
		return nil

	case amqp.KindUpsert:
		op, err := w.repo.GetOperation(ctx, msg.OperationID)
		if errors.Is(err, core.ErrOperationNotFound) {
			// Deleted between publish and consume. Make the target agree.
			slog.InfoContext(ctx, "Operation gone before export, removing from target",
				"operation_id", msg.OperationID)
			return w.target.Remove(ctx, msg.OperationID)
		}
		if err != nil {
			return fmt.Errorf("get operation from storage: %w", err)
		}
		return w.exportOperation(ctx, op)

	default:
		// Unknown kinds are dropped, requeueing them would loop forever.
		slog.WarnContext(ctx, "Unknown sync message kind, dropping",
			"operation_id", msg.OperationID, "kind", msg.Kind)
		return nil
	}
}

// ProcessPendingOperations exports operations still marked pending. This is a
// backup mechanism in case AMQP messages are lost.
func (w *ExportWorker) ProcessPendingOperations(ctx context.Context) error {
	pending, err := w.repo.PendingExportOperations(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending operations: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending operations", "count", len(pending))

	for _, op := range pending {
		if err := w.exportOperation(ctx, op); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending operation",
				"operation_id", op.ID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck exports any backlog left from missed messages or worker
// downtime. Runs with a larger batch than the periodic scan.
func (w *ExportWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.repo.PendingExportOperations(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending operations for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending operations found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending operations on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0
	for _, op := range pending {
		if err := w.exportOperation(ctx, op); err != nil {
			slog.ErrorContext(ctx, "Failed to export operation during startup",
				"operation_id", op.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)
	return nil
}

func (w *ExportWorker) exportOperation(ctx context.Context, op core.Operation) error {
	rec, err := w.buildRecord(ctx, op)
	if err != nil {
		if markErr := w.repo.MarkExportError(ctx, op.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"operation_id", op.ID, "error", markErr)
		}
		return err
	}

	if err := w.target.Upsert(ctx, rec); err != nil {
		if markErr := w.repo.MarkExportError(ctx, op.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"operation_id", op.ID, "error", markErr)
		}
		return fmt.Errorf("upsert to export target: %w", err)
	}

	if err := w.repo.MarkExported(ctx, op.ID); err != nil {
		// The export itself worked; the pending scan will just retry it.
		slog.ErrorContext(ctx, "Failed to mark as exported",
			"operation_id", op.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "Operation exported",
		"operation_id", op.ID,
		"operation_type", string(op.Type),
		"amount_cents", op.Amount.Cents)
	return nil
}

// buildRecord denormalizes display names into the export row. A deleted
// category is tolerated; a missing account is not, the operation row would be
// orphaned.
func (w *ExportWorker) buildRecord(ctx context.Context, op core.Operation) (export.Record, error) {
	account, err := w.repo.GetAccount(ctx, op.AccountID)
	if err != nil {
		return export.Record{}, fmt.Errorf("get account for export: %w", err)
	}

	categoryName := ""
	if category, err := w.repo.GetCategory(ctx, op.CategoryID); err == nil {
		categoryName = category.Name
	} else if !errors.Is(err, core.ErrCategoryNotFound) {
		return export.Record{}, fmt.Errorf("get category for export: %w", err)
	}

	return export.Record{
		Operation:    op,
		AccountName:  account.Name,
		CategoryName: categoryName,
	}, nil
}
