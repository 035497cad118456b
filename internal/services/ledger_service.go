// Package services orchestrates ledger use cases on top of the storage layer:
// validation before any write, atomic reconciliation through the repository,
// then change notification and export messaging after commit.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stashguard/internal/amqp"
	"stashguard/internal/core"
	applog "stashguard/internal/log"
	"stashguard/internal/notify"
	"stashguard/internal/storage"

	"github.com/google/uuid"
)

// SyncPublisher sends export messages for committed operations. Publishing is
// fire-and-tolerate: a failed publish never rolls back the local write, the
// worker's pending scan picks the operation up later.
type SyncPublisher interface {
	PublishOperationSync(ctx context.Context, msg *amqp.OperationSyncMessage) error
}

// LedgerService orchestrates account, category and operation use cases.
// Publisher and notifier are optional; without them writes are local only.
type LedgerService struct {
	repo       *storage.Repository
	publisher  SyncPublisher
	notifier   *notify.Notifier
	structured *applog.StructuredLogger
}

func NewLedgerService(repo *storage.Repository, publisher SyncPublisher, notifier *notify.Notifier) *LedgerService {
	return &LedgerService{
		repo:       repo,
		publisher:  publisher,
		notifier:   notifier,
		structured: applog.NewStructuredLogger(applog.New(applog.DefaultConfig())),
	}
}

// AccountInput carries the caller-supplied fields of a new or updated account.
// InitialBalance may be negative and is honored on create only.
type AccountInput struct {
	Name           string
	InitialBalance core.Money
	Color          int64
	IsDebt         bool
}

// OperationInput describes a REVENUE or EXPENSE to record.
type OperationInput struct {
	AccountID  string
	Type       core.OperationType
	Amount     core.Money
	CategoryID string
	Date       core.Date
	Note       string
}

// TransferInput describes a transfer between two accounts.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        core.Money
	CategoryID    string
	Date          core.Date
	Note          string
}

// UpdateInput carries the editable fields of an existing operation. For a
// transfer, ToAccountID may name a new destination; leave it empty to keep the
// current one.
type UpdateInput struct {
	Amount      core.Money
	CategoryID  string
	Date        core.Date
	Note        string
	ToAccountID string
}

// --- accounts ---

func (s *LedgerService) CreateAccount(ctx context.Context, in AccountInput) (core.Account, error) {
	account := core.Account{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Balance:   in.InitialBalance,
		Color:     in.Color,
		IsDebt:    in.IsDebt,
		CreatedAt: time.Now().UTC(),
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.publishChange(notify.Event{Topic: notify.TopicAccounts})
	return account, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.repo.ListAccounts(ctx)
}

func (s *LedgerService) UpdateAccount(ctx context.Context, id string, in AccountInput) (core.Account, error) {
	account, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, err
	}
	account.Name = strings.TrimSpace(in.Name)
	account.Color = in.Color
	account.IsDebt = in.IsDebt
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}

	s.publishChange(notify.Event{Topic: notify.TopicAccounts})
	return account, nil
}

// DeleteAccount removes the account and all operations referencing it,
// reversing counterparty balances. Export removals go out for every deleted
// operation.
func (s *LedgerService) DeleteAccount(ctx context.Context, id string) error {
	removed, err := s.repo.DeleteAccount(ctx, id)
	if err != nil {
		return err
	}

	touched := make([]string, 0, len(removed))
	for _, op := range removed {
		touched = append(touched, op.AccountID)
		s.publishSync(ctx, amqp.NewDeleteMessage(op.ID))
	}
	s.publishChange(notify.Event{Topic: notify.TopicAccounts})
	if len(touched) > 0 {
		s.publishChange(notify.Event{Topic: notify.TopicOperations, AccountIDs: touched})
	}

	slog.InfoContext(ctx, "Account deleted",
		"account_id", id, "removed_operations", len(removed))
	return nil
}

// --- categories ---

// CategoryInput carries the caller-supplied fields of a category.
type CategoryInput struct {
	Name     string
	Color    int64
	IconName string
	Type     core.CategoryType
}

func (s *LedgerService) CreateCategory(ctx context.Context, in CategoryInput) (core.Category, error) {
	category := core.Category{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Color:     in.Color,
		IconName:  in.IconName,
		Type:      in.Type,
		CreatedAt: time.Now().UTC(),
	}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.publishChange(notify.Event{Topic: notify.TopicCategories})
	return category, nil
}

func (s *LedgerService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.repo.ListCategories(ctx)
}

// ListCategoriesForType returns categories usable for the given operation
// type, including BOTH-typed ones. Transfers accept any category.
func (s *LedgerService) ListCategoriesForType(ctx context.Context, t core.OperationType) ([]core.Category, error) {
	switch t {
	case core.OperationRevenue:
		return s.repo.ListCategoriesByType(ctx, core.CategoryRevenue)
	case core.OperationExpense:
		return s.repo.ListCategoriesByType(ctx, core.CategoryExpense)
	case core.OperationTransfer:
		return s.repo.ListCategories(ctx)
	}
	return nil, core.ErrInvalidOperationType
}

func (s *LedgerService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (core.Category, error) {
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	category.Name = strings.TrimSpace(in.Name)
	category.Color = in.Color
	category.IconName = in.IconName
	category.Type = in.Type
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}

	s.publishChange(notify.Event{Topic: notify.TopicCategories})
	return category, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.publishChange(notify.Event{Topic: notify.TopicCategories})
	return nil
}

// --- operations ---

// RecordOperation validates and persists a REVENUE or EXPENSE, adjusting the
// account balance in the same transaction.
func (s *LedgerService) RecordOperation(ctx context.Context, in OperationInput) (core.Operation, error) {
	if in.Type == core.OperationTransfer {
		return core.Operation{}, core.ErrInvalidOperationType
	}

	op := core.Operation{
		ID:         uuid.NewString(),
		AccountID:  in.AccountID,
		Type:       in.Type,
		Amount:     in.Amount,
		CategoryID: in.CategoryID,
		Date:       in.Date,
		Note:       strings.TrimSpace(in.Note),
		CreatedAt:  time.Now().UTC(),
	}
	if err := op.Validate(); err != nil {
		return core.Operation{}, err
	}
	if err := s.validateCategory(ctx, op.CategoryID, op.Type); err != nil {
		return core.Operation{}, err
	}

	if err := s.repo.CreateOperation(ctx, op); err != nil {
		return core.Operation{}, fmt.Errorf("record operation: %w", err)
	}

	s.afterOperationCommit(ctx, op)
	return op, nil
}

// RecordTransfer persists both legs of a transfer atomically. The outgoing
// leg's id doubles as the pairing token, so each stored row can tell which
// direction it faces without loading its sibling.
func (s *LedgerService) RecordTransfer(ctx context.Context, in TransferInput) (core.Operation, core.Operation, error) {
	if in.FromAccountID == in.ToAccountID {
		return core.Operation{}, core.Operation{}, core.ErrSameAccountTransfer
	}

	now := time.Now().UTC()
	note := strings.TrimSpace(in.Note)

	out := core.Operation{
		ID:          uuid.NewString(),
		AccountID:   in.FromAccountID,
		Type:        core.OperationTransfer,
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		Date:        in.Date,
		Note:        note,
		CreatedAt:   now,
		ToAccountID: in.ToAccountID,
	}
	out.LinkedOperationID = out.ID

	incoming := core.Operation{
		ID:                uuid.NewString(),
		AccountID:         in.ToAccountID,
		Type:              core.OperationTransfer,
		Amount:            in.Amount,
		CategoryID:        in.CategoryID,
		Date:              in.Date,
		Note:              note,
		CreatedAt:         now,
		LinkedOperationID: out.ID,
		ToAccountID:       in.FromAccountID,
	}

	if err := out.Validate(); err != nil {
		return core.Operation{}, core.Operation{}, err
	}
	if err := s.validateCategory(ctx, out.CategoryID, out.Type); err != nil {
		return core.Operation{}, core.Operation{}, err
	}

	if err := s.repo.CreateTransfer(ctx, out, incoming); err != nil {
		return core.Operation{}, core.Operation{}, fmt.Errorf("record transfer: %w", err)
	}

	s.publishSync(ctx, amqp.NewUpsertMessage(out.ID))
	s.publishSync(ctx, amqp.NewUpsertMessage(incoming.ID))
	s.publishChange(notify.Event{Topic: notify.TopicAccounts})
	s.publishChange(notify.Event{
		Topic:      notify.TopicOperations,
		AccountIDs: []string{out.AccountID, incoming.AccountID},
	})
	return out, incoming, nil
}

func (s *LedgerService) GetOperation(ctx context.Context, id string) (core.Operation, error) {
	return s.repo.GetOperation(ctx, id)
}

func (s *LedgerService) ListOperations(ctx context.Context, accountID string) ([]core.Operation, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListOperationsByAccount(ctx, accountID)
}

// UpdateOperation edits an operation with reverse-then-reapply semantics. For
// transfers, either leg may be named; both are rewritten together.
func (s *LedgerService) UpdateOperation(ctx context.Context, id string, in UpdateInput) ([]core.Operation, error) {
	if err := in.Amount.Validate(); err != nil {
		return nil, err
	}
	if err := in.Date.Validate(); err != nil {
		return nil, err
	}
	if len(in.Note) > 200 {
		return nil, core.ErrNoteTooLong
	}

	existing, err := s.repo.GetOperation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateCategory(ctx, in.CategoryID, existing.Type); err != nil {
		return nil, err
	}
	if in.ToAccountID != "" && existing.Type != core.OperationTransfer {
		return nil, core.ErrInvalidOperationType
	}

	updated, err := s.repo.UpdateOperation(ctx, id, storage.OperationChanges{
		Amount:         in.Amount,
		CategoryID:     in.CategoryID,
		Date:           in.Date,
		Note:           strings.TrimSpace(in.Note),
		NewToAccountID: in.ToAccountID,
	})
	if err != nil {
		return nil, err
	}

	touched := make([]string, 0, len(updated))
	for _, op := range updated {
		touched = append(touched, op.AccountID)
		s.publishSync(ctx, amqp.NewUpsertMessage(op.ID))
	}
	s.publishChange(notify.Event{Topic: notify.TopicAccounts})
	s.publishChange(notify.Event{Topic: notify.TopicOperations, AccountIDs: touched})
	return updated, nil
}

// DeleteOperation reverses and removes an operation; for transfers both legs
// go together.
func (s *LedgerService) DeleteOperation(ctx context.Context, id string) error {
	removed, err := s.repo.DeleteOperation(ctx, id)
	if err != nil {
		return err
	}

	touched := make([]string, 0, len(removed))
	for _, op := range removed {
		touched = append(touched, op.AccountID)
		s.publishSync(ctx, amqp.NewDeleteMessage(op.ID))
	}
	s.publishChange(notify.Event{Topic: notify.TopicAccounts})
	s.publishChange(notify.Event{Topic: notify.TopicOperations, AccountIDs: touched})
	return nil
}

// --- statistics ---

// AccountStatistics aggregates an account's operations inside the trailing
// window ending at asOf.
func (s *LedgerService) AccountStatistics(ctx context.Context, accountID string, asOf core.Date, windowDays int) (core.Statistics, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return core.Statistics{}, err
	}
	ops, err := s.repo.ListOperationsByAccount(ctx, accountID)
	if err != nil {
		return core.Statistics{}, err
	}
	return core.ComputeStatistics(ops, asOf, windowDays), nil
}

// --- helpers ---

// validateCategory confirms the category exists and fits the operation type.
// BOTH-typed categories fit everything; transfers accept any category.
func (s *LedgerService) validateCategory(ctx context.Context, categoryID string, opType core.OperationType) error {
	category, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if category.Type == core.CategoryBoth || opType == core.OperationTransfer {
		return nil
	}
	if opType == core.OperationRevenue && category.Type != core.CategoryRevenue {
		return core.ErrInvalidCategoryType
	}
	if opType == core.OperationExpense && category.Type != core.CategoryExpense {
		return core.ErrInvalidCategoryType
	}
	return nil
}

func (s *LedgerService) afterOperationCommit(ctx context.Context, op core.Operation) {
	s.structured.LogOperationRecorded(ctx, op.ID, op.AccountID, string(op.Type), op.Amount.Cents)
	s.publishSync(ctx, amqp.NewUpsertMessage(op.ID))
	s.publishChange(notify.Event{Topic: notify.TopicAccounts})
	s.publishChange(notify.Event{Topic: notify.TopicOperations, AccountIDs: []string{op.AccountID}})
}

func (s *LedgerService) publishSync(ctx context.Context, msg *amqp.OperationSyncMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOperationSync(ctx, msg); err != nil {
		// Local write already committed; the pending scan will retry.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"operation_id", msg.OperationID, "kind", msg.Kind, "error", err)
	}
}

func (s *LedgerService) publishChange(event notify.Event) {
	if s.notifier != nil {
		s.notifier.Publish(event)
	}
}

// Close releases the storage connection.
func (s *LedgerService) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}
