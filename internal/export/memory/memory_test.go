package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"stashguard/internal/core"
	"stashguard/internal/export"
)

func testRecord(id string, cents int64) export.Record {
	return export.Record{
		Operation: core.Operation{
			ID:         id,
			AccountID:  "acct",
			Type:       core.OperationExpense,
			Amount:     core.Money{Cents: cents},
			CategoryID: "category_food",
			Date:       core.NewDate(2026, 8, 15),
			CreatedAt:  time.Now().UTC(),
		},
		AccountName:  "Checking",
		CategoryName: "Food",
	}
}

func TestStore_UpsertReplaces(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("op-1", 100)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Upsert(ctx, testRecord("op-1", 250)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if s.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", s.Size())
	}
	rec, ok := s.Record("op-1")
	if !ok || rec.Operation.Amount.Cents != 250 {
		t.Errorf("Record(op-1) = %+v, %v; want replaced amount 250", rec, ok)
	}
}

func TestStore_UpsertRejectsInvalid(t *testing.T) {
	s := New()

	rec := testRecord("op-2", 0)
	err := s.Upsert(context.Background(), rec)
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("Upsert() error = %v, want ErrInvalidAmount", err)
	}
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord("op-3", 100)); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := s.Remove(ctx, "op-3"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(ctx, "op-3"); err != nil {
		t.Fatalf("Remove() of absent id error = %v, want nil", err)
	}
	if s.Size() != 0 {
		t.Errorf("Size() = %d, want 0", s.Size())
	}
}
