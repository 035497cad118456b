package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestOperationValidate(t *testing.T) {
	valid := Operation{
		ID:        "op-1",
		AccountID: "acc-a",
		Type:      OperationExpense,
		Amount:    Money{Cents: 100},
		Date:      NewDate(2026, 9, 1),
	}

	t.Run("valid expense", func(t *testing.T) {
		if err := valid.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("zero amount", func(t *testing.T) {
		op := valid
		op.Amount = Money{}
		if err := op.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("want ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		op := valid
		op.Amount = Money{Cents: -100}
		if err := op.Validate(); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("want ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("zero date", func(t *testing.T) {
		op := valid
		op.Date = Date{}
		if err := op.Validate(); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("want ErrInvalidDate, got %v", err)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		op := valid
		op.Type = "SPEND"
		if err := op.Validate(); !errors.Is(err, ErrInvalidOperationType) {
			t.Errorf("want ErrInvalidOperationType, got %v", err)
		}
	})

	t.Run("note too long", func(t *testing.T) {
		op := valid
		op.Note = strings.Repeat("x", 201)
		if err := op.Validate(); !errors.Is(err, ErrNoteTooLong) {
			t.Errorf("want ErrNoteTooLong, got %v", err)
		}
	})

	t.Run("transfer to same account", func(t *testing.T) {
		op := valid
		op.Type = OperationTransfer
		op.LinkedOperationID = op.ID
		op.ToAccountID = op.AccountID
		if err := op.Validate(); !errors.Is(err, ErrSameAccountTransfer) {
			t.Errorf("want ErrSameAccountTransfer, got %v", err)
		}
	})

	t.Run("transfer without destination", func(t *testing.T) {
		op := valid
		op.Type = OperationTransfer
		op.LinkedOperationID = op.ID
		if err := op.Validate(); err == nil {
			t.Error("transfer without destination account should not validate")
		}
	})

	t.Run("transfer fields on expense", func(t *testing.T) {
		op := valid
		op.ToAccountID = "acc-b"
		if err := op.Validate(); err == nil {
			t.Error("expense with transfer fields should not validate")
		}
	})
}

func TestAccountValidate(t *testing.T) {
	if err := (Account{Name: "Checking"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (Account{Name: "   "}).Validate(); !errors.Is(err, ErrBlankName) {
		t.Error("blank account name should not validate")
	}
}

func TestCategoryValidate(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		wantErr  error
	}{
		{"valid", Category{Name: "Food", Type: CategoryExpense}, nil},
		{"both type", Category{Name: "Transfer", Type: CategoryBoth}, nil},
		{"blank name", Category{Name: "", Type: CategoryExpense}, ErrBlankName},
		{"bad type", Category{Name: "Food", Type: "OTHER"}, ErrInvalidCategoryType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.category.Validate()
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-15" {
		t.Errorf("round trip mismatch: %s", d.String())
	}

	if _, err := ParseDate("15/01/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Error("non-ISO date should not parse")
	}
	if _, err := ParseDate(""); !errors.Is(err, ErrInvalidDate) {
		t.Error("empty date should not parse")
	}
}

func TestDateOf(t *testing.T) {
	instant := time.Date(2026, 9, 1, 23, 59, 58, 0, time.UTC)
	if got := DateOf(instant).String(); got != "2026-09-01" {
		t.Errorf("DateOf() = %s, want 2026-09-01", got)
	}
}
