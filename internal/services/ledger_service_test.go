package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"stashguard/internal/amqp"
	"stashguard/internal/core"
	"stashguard/internal/storage"
)

type capturingPublisher struct {
	mu       sync.Mutex
	messages []*amqp.OperationSyncMessage
	fail     bool
}

func (p *capturingPublisher) PublishOperationSync(_ context.Context, msg *amqp.OperationSyncMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) byKind(kind string) []*amqp.OperationSyncMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*amqp.OperationSyncMessage
	for _, m := range p.messages {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func newTestService(t *testing.T) (*LedgerService, *capturingPublisher) {
	t.Helper()
	repo, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	pub := &capturingPublisher{}
	return NewLedgerService(repo, pub, nil), pub
}

func mustCreateAccount(t *testing.T, svc *LedgerService, name string, cents int64) core.Account {
	t.Helper()
	a, err := svc.CreateAccount(context.Background(), AccountInput{
		Name:           name,
		InitialBalance: core.Money{Cents: cents},
		Color:          4283215696,
	})
	if err != nil {
		t.Fatalf("CreateAccount(%s) error = %v", name, err)
	}
	return a
}

func TestLedgerService_CreateAccountValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateAccount(context.Background(), AccountInput{Name: "   "})
	if !errors.Is(err, core.ErrBlankName) {
		t.Fatalf("CreateAccount() error = %v, want ErrBlankName", err)
	}
}

func TestLedgerService_RecordOperation(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	acct := mustCreateAccount(t, svc, "Checking", 10000)

	op, err := svc.RecordOperation(ctx, OperationInput{
		AccountID:  acct.ID,
		Type:       core.OperationExpense,
		Amount:     core.Money{Cents: 2500},
		CategoryID: "category_food",
		Date:       core.NewDate(2026, 8, 15),
		Note:       "groceries",
	})
	if err != nil {
		t.Fatalf("RecordOperation() error = %v", err)
	}

	got, err := svc.GetAccount(ctx, acct.ID)
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.Balance.Cents != 7500 {
		t.Errorf("balance = %d, want 7500", got.Balance.Cents)
	}

	upserts := pub.byKind(amqp.KindUpsert)
	if len(upserts) != 1 || upserts[0].OperationID != op.ID {
		t.Errorf("published upserts = %v, want one for %s", upserts, op.ID)
	}
}

func TestLedgerService_RecordOperationValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	acct := mustCreateAccount(t, svc, "Checking", 0)

	valid := OperationInput{
		AccountID:  acct.ID,
		Type:       core.OperationRevenue,
		Amount:     core.Money{Cents: 100},
		CategoryID: "category_salary",
		Date:       core.NewDate(2026, 8, 15),
	}

	tests := []struct {
		name    string
		mutate  func(*OperationInput)
		wantErr error
	}{
		{
			name:    "zero amount",
			mutate:  func(in *OperationInput) { in.Amount = core.Money{} },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			mutate:  func(in *OperationInput) { in.Amount = core.Money{Cents: -5} },
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "zero date",
			mutate:  func(in *OperationInput) { in.Date = core.Date{} },
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "transfer type rejected",
			mutate:  func(in *OperationInput) { in.Type = core.OperationTransfer },
			wantErr: core.ErrInvalidOperationType,
		},
		{
			name:    "unknown category",
			mutate:  func(in *OperationInput) { in.CategoryID = "category_nope" },
			wantErr: core.ErrCategoryNotFound,
		},
		{
			name:    "expense category on revenue",
			mutate:  func(in *OperationInput) { in.CategoryID = "category_food" },
			wantErr: core.ErrInvalidCategoryType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.RecordOperation(ctx, in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RecordOperation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLedgerService_RecordTransfer(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	from := mustCreateAccount(t, svc, "From", 10000)
	to := mustCreateAccount(t, svc, "To", 0)

	out, in, err := svc.RecordTransfer(ctx, TransferInput{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        core.Money{Cents: 3000},
		CategoryID:    "category_transfer",
		Date:          core.NewDate(2026, 8, 15),
	})
	if err != nil {
		t.Fatalf("RecordTransfer() error = %v", err)
	}

	if !out.IsOutgoingLeg() {
		t.Error("first returned leg should be outgoing")
	}
	if in.IsOutgoingLeg() {
		t.Error("second returned leg should be incoming")
	}
	if out.LinkedOperationID != out.ID || in.LinkedOperationID != out.ID {
		t.Error("both legs must share the outgoing leg's id as pairing token")
	}

	fromAcct, _ := svc.GetAccount(ctx, from.ID)
	toAcct, _ := svc.GetAccount(ctx, to.ID)
	if fromAcct.Balance.Cents != 7000 || toAcct.Balance.Cents != 3000 {
		t.Errorf("balances = %d/%d, want 7000/3000", fromAcct.Balance.Cents, toAcct.Balance.Cents)
	}

	if got := len(pub.byKind(amqp.KindUpsert)); got != 2 {
		t.Errorf("published %d upserts, want 2", got)
	}
}

func TestLedgerService_RecordTransferSameAccount(t *testing.T) {
	svc, _ := newTestService(t)
	acct := mustCreateAccount(t, svc, "Solo", 1000)

	_, _, err := svc.RecordTransfer(context.Background(), TransferInput{
		FromAccountID: acct.ID,
		ToAccountID:   acct.ID,
		Amount:        core.Money{Cents: 100},
		CategoryID:    "category_transfer",
		Date:          core.NewDate(2026, 8, 15),
	})
	if !errors.Is(err, core.ErrSameAccountTransfer) {
		t.Fatalf("RecordTransfer() error = %v, want ErrSameAccountTransfer", err)
	}
}

func TestLedgerService_DeleteTransferPublishesBothRemovals(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	from := mustCreateAccount(t, svc, "From", 10000)
	to := mustCreateAccount(t, svc, "To", 0)

	out, _, err := svc.RecordTransfer(ctx, TransferInput{
		FromAccountID: from.ID,
		ToAccountID:   to.ID,
		Amount:        core.Money{Cents: 3000},
		CategoryID:    "category_transfer",
		Date:          core.NewDate(2026, 8, 15),
	})
	if err != nil {
		t.Fatalf("RecordTransfer() error = %v", err)
	}

	if err := svc.DeleteOperation(ctx, out.ID); err != nil {
		t.Fatalf("DeleteOperation() error = %v", err)
	}

	if got := len(pub.byKind(amqp.KindDelete)); got != 2 {
		t.Errorf("published %d delete messages, want 2", got)
	}
	fromAcct, _ := svc.GetAccount(ctx, from.ID)
	if fromAcct.Balance.Cents != 10000 {
		t.Errorf("balance after delete = %d, want 10000", fromAcct.Balance.Cents)
	}
}

func TestLedgerService_PublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()
	acct := mustCreateAccount(t, svc, "Checking", 0)
	pub.fail = true

	op, err := svc.RecordOperation(ctx, OperationInput{
		AccountID:  acct.ID,
		Type:       core.OperationRevenue,
		Amount:     core.Money{Cents: 500},
		CategoryID: "category_salary",
		Date:       core.NewDate(2026, 8, 15),
	})
	if err != nil {
		t.Fatalf("RecordOperation() error = %v, want success despite broker failure", err)
	}
	if _, err := svc.GetOperation(ctx, op.ID); err != nil {
		t.Errorf("GetOperation() error = %v, operation should be persisted", err)
	}
}

func TestLedgerService_AccountStatistics(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	acct := mustCreateAccount(t, svc, "Stats", 0)
	asOf := core.NewDate(2026, 8, 31)

	record := func(opType core.OperationType, cents int64, categoryID string, date core.Date) {
		t.Helper()
		_, err := svc.RecordOperation(ctx, OperationInput{
			AccountID:  acct.ID,
			Type:       opType,
			Amount:     core.Money{Cents: cents},
			CategoryID: categoryID,
			Date:       date,
		})
		if err != nil {
			t.Fatalf("RecordOperation() error = %v", err)
		}
	}

	record(core.OperationRevenue, 10000, "category_salary", core.NewDate(2026, 8, 10))
	record(core.OperationExpense, 4000, "category_food", core.NewDate(2026, 8, 20))
	// Outside the 30-day window, must be ignored.
	record(core.OperationExpense, 99999, "category_food", core.NewDate(2026, 6, 1))

	stats, err := svc.AccountStatistics(ctx, acct.ID, asOf, 30)
	if err != nil {
		t.Fatalf("AccountStatistics() error = %v", err)
	}
	if stats.TotalRevenue.Cents != 10000 {
		t.Errorf("TotalRevenue = %d, want 10000", stats.TotalRevenue.Cents)
	}
	if stats.TotalExpense.Cents != 4000 {
		t.Errorf("TotalExpense = %d, want 4000", stats.TotalExpense.Cents)
	}
	if stats.NetChange.Cents != 6000 {
		t.Errorf("NetChange = %d, want 6000", stats.NetChange.Cents)
	}
	if stats.TransactionCount != 2 {
		t.Errorf("TransactionCount = %d, want 2", stats.TransactionCount)
	}
	if stats.AverageTransaction.Cents != 7000 {
		t.Errorf("AverageTransaction = %d, want 7000", stats.AverageTransaction.Cents)
	}
}

func TestLedgerService_StatisticsUnknownAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AccountStatistics(context.Background(), "missing", core.NewDate(2026, 8, 31), 30)
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("AccountStatistics() error = %v, want ErrAccountNotFound", err)
	}
}

func TestLedgerService_CategoryLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCategory(ctx, CategoryInput{
		Name:     "Pets",
		Color:    4294940672,
		IconName: "Pets",
		Type:     core.CategoryExpense,
	})
	if err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Bad", Type: "WEEKLY"})
	if !errors.Is(err, core.ErrInvalidCategoryType) {
		t.Fatalf("CreateCategory() error = %v, want ErrInvalidCategoryType", err)
	}

	updated, err := svc.UpdateCategory(ctx, created.ID, CategoryInput{
		Name:     "Pet care",
		Color:    created.Color,
		IconName: created.IconName,
		Type:     core.CategoryBoth,
	})
	if err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}
	if updated.Name != "Pet care" || updated.Type != core.CategoryBoth {
		t.Errorf("UpdateCategory() = %+v, fields not applied", updated)
	}

	if err := svc.DeleteCategory(ctx, created.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if err := svc.DeleteCategory(ctx, created.ID); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("DeleteCategory() second call error = %v, want ErrCategoryNotFound", err)
	}
}
