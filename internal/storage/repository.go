// Package storage persists the ledger in SQLite and owns every balance
// mutation. Each mutation that touches more than one row (operation rows plus
// account rows, or two transfer legs plus two accounts) commits as a single
// transaction: readers never observe an operation without its balance delta or
// one transfer leg without its sibling.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"stashguard/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB

	// Serializes mutations. SQLite is single-writer anyway; holding the lock
	// across read-modify-write keeps two concurrent edits from racing between
	// their BEGIN and COMMIT.
	writeMu sync.Mutex
}

func New(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// OperationChanges carries the editable fields of an operation. AccountID,
// Type and LinkedOperationID are immutable after creation. NewToAccountID is
// honored only for transfers and names the new destination account; leave it
// empty to keep the current one.
type OperationChanges struct {
	Amount         core.Money
	CategoryID     string
	Date           core.Date
	Note           string
	NewToAccountID string
}

const operationColumns = `id, account_id, type, amount_cents, category_id, date, note, created_at,
	COALESCE(linked_operation_id, ''), COALESCE(to_account_id, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(row rowScanner) (core.Operation, error) {
	var op core.Operation
	var amountCents, createdAtMillis int64
	var date string
	err := row.Scan(&op.ID, &op.AccountID, &op.Type, &amountCents, &op.CategoryID,
		&date, &op.Note, &createdAtMillis, &op.LinkedOperationID, &op.ToAccountID)
	if err != nil {
		return core.Operation{}, err
	}
	op.Amount = core.Money{Cents: amountCents}
	op.CreatedAt = time.UnixMilli(createdAtMillis).UTC()
	op.Date, err = core.ParseDate(date)
	if err != nil {
		return core.Operation{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	return op, nil
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var balanceCents, createdAtMillis int64
	var isDebt bool
	err := row.Scan(&a.ID, &a.Name, &balanceCents, &a.Color, &isDebt, &createdAtMillis)
	if err != nil {
		return core.Account{}, err
	}
	a.Balance = core.Money{Cents: balanceCents}
	a.IsDebt = isDebt
	a.CreatedAt = time.UnixMilli(createdAtMillis).UTC()
	return a, nil
}

// --- accounts ---

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, balance_cents, color, is_debt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Balance.Cents, a.Color, a.IsDebt, a.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, balance_cents, color, is_debt, created_at FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrAccountNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, balance_cents, color, is_debt, created_at
		 FROM accounts ORDER BY name COLLATE NOCASE ASC`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount changes display attributes only. Balances move exclusively
// through operation reconciliation.
func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, color = ?, is_debt = ? WHERE id = ?`,
		a.Name, a.Color, a.IsDebt, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, core.ErrAccountNotFound)
}

// DeleteAccount cascades: every operation referencing the account, as primary
// or as transfer counterparty, is reversed and removed first, so no other
// account's balance is left stale. Returns the removed operations.
func (r *Repository) DeleteAccount(ctx context.Context, id string) ([]core.Operation, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete account: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operations WHERE account_id = ? OR to_account_id = ?`, id, id)
	if err != nil {
		return nil, fmt.Errorf("list referencing operations: %w", err)
	}
	var ops []core.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Both legs of a healthy transfer reference the account, so each pairing
	// token must show up exactly twice. A lone leg means prior corruption.
	legs := make(map[string]int)
	for _, op := range ops {
		if op.Type == core.OperationTransfer {
			legs[op.LinkedOperationID]++
		}
	}
	for _, n := range legs {
		if n != 2 {
			return nil, core.ErrLinkedOperationMissing
		}
	}

	for _, op := range ops {
		if err := applyDelta(ctx, tx, op.AccountID, -core.Effect(op, op.AccountID)); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, op.ID); err != nil {
			return nil, fmt.Errorf("delete operation %s: %w", op.ID, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("delete account: %w", err)
	}
	if err := requireRow(res, core.ErrAccountNotFound); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete account: %w", err)
	}
	return ops, nil
}

// --- categories ---

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, color, icon_name, type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Color, c.IconName, c.Type, c.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, icon_name, type, created_at FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT id, name, color, icon_name, type, created_at FROM categories ORDER BY name ASC`)
}

// ListCategoriesByType includes BOTH-typed categories, which apply to every
// operation type.
func (r *Repository) ListCategoriesByType(ctx context.Context, t core.CategoryType) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT id, name, color, icon_name, type, created_at FROM categories
		 WHERE type = ? OR type = 'BOTH' ORDER BY name ASC`, string(t))
}

func (r *Repository) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	var createdAtMillis int64
	err := row.Scan(&c.ID, &c.Name, &c.Color, &c.IconName, &c.Type, &createdAtMillis)
	if err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = time.UnixMilli(createdAtMillis).UTC()
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, color = ?, icon_name = ?, type = ? WHERE id = ?`,
		c.Name, c.Color, c.IconName, c.Type, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, core.ErrCategoryNotFound)
}

// DeleteCategory removes the category only. Operations keep their category
// reference; a dangling one is acceptable since category is informational.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res, core.ErrCategoryNotFound)
}

// --- operation reads ---

func (r *Repository) GetOperation(ctx context.Context, id string) (core.Operation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+operationColumns+` FROM operations WHERE id = ?`, id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Operation{}, core.ErrOperationNotFound
	}
	if err != nil {
		return core.Operation{}, fmt.Errorf("get operation: %w", err)
	}
	return op, nil
}

func (r *Repository) ListOperationsByAccount(ctx context.Context, accountID string) ([]core.Operation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operations
		 WHERE account_id = ? ORDER BY date DESC, created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var ops []core.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// FindLinkedOperation locates a transfer's sibling leg: the row sharing the
// pairing token on a different account.
func (r *Repository) FindLinkedOperation(ctx context.Context, linkedOperationID, excludingAccountID string) (core.Operation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+operationColumns+` FROM operations
		 WHERE linked_operation_id = ? AND account_id != ?`, linkedOperationID, excludingAccountID)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Operation{}, core.ErrLinkedOperationMissing
	}
	if err != nil {
		return core.Operation{}, fmt.Errorf("find linked operation: %w", err)
	}
	return op, nil
}

// --- reconciliation ---

// CreateOperation inserts a REVENUE or EXPENSE row and applies its effect to
// the account balance in one transaction.
func (r *Repository) CreateOperation(ctx context.Context, op core.Operation) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create operation: %w", err)
	}
	defer tx.Rollback()

	if err := insertOperation(ctx, tx, op); err != nil {
		return err
	}
	if err := applyDelta(ctx, tx, op.AccountID, core.Effect(op, op.AccountID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create operation: %w", err)
	}
	return nil
}

// CreateTransfer inserts both legs and adjusts both balances atomically.
// Either everything is persisted or nothing is.
func (r *Repository) CreateTransfer(ctx context.Context, out, in core.Operation) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create transfer: %w", err)
	}
	defer tx.Rollback()

	if err := insertOperation(ctx, tx, out); err != nil {
		return err
	}
	if err := insertOperation(ctx, tx, in); err != nil {
		return err
	}
	if err := applyDelta(ctx, tx, out.AccountID, core.Effect(out, out.AccountID)); err != nil {
		return err
	}
	if err := applyDelta(ctx, tx, in.AccountID, core.Effect(in, in.AccountID)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create transfer: %w", err)
	}
	return nil
}

// UpdateOperation edits an existing operation with reverse-then-reapply
// reconciliation: the persisted effect is undone, the new field values are
// written, and the new effect is applied, all in one transaction. For
// transfers both legs and both balances move together; a missing sibling
// fails the whole update. Returns the updated operation(s), primary first.
func (r *Repository) UpdateOperation(ctx context.Context, id string, changes OperationChanges) ([]core.Operation, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update operation: %w", err)
	}
	defer tx.Rollback()

	old, err := getOperationTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	var updated []core.Operation
	if old.Type == core.OperationTransfer {
		updated, err = updateTransferTx(ctx, tx, old, changes)
	} else {
		updated, err = updateSimpleTx(ctx, tx, old, changes)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update operation: %w", err)
	}
	return updated, nil
}

func updateSimpleTx(ctx context.Context, tx *sql.Tx, old core.Operation, changes OperationChanges) ([]core.Operation, error) {
	// Reverse the old effect before applying the new one. Even when the
	// amounts match, both steps run; the net delta just happens to be zero.
	if err := applyDelta(ctx, tx, old.AccountID, -core.Effect(old, old.AccountID)); err != nil {
		return nil, err
	}

	updated := old
	updated.Amount = changes.Amount
	updated.CategoryID = changes.CategoryID
	updated.Date = changes.Date
	updated.Note = changes.Note
	if err := writeOperationFields(ctx, tx, updated); err != nil {
		return nil, err
	}

	if err := applyDelta(ctx, tx, updated.AccountID, core.Effect(updated, updated.AccountID)); err != nil {
		return nil, err
	}
	return []core.Operation{updated}, nil
}

func updateTransferTx(ctx context.Context, tx *sql.Tx, old core.Operation, changes OperationChanges) ([]core.Operation, error) {
	sibling, err := findLinkedTx(ctx, tx, old.LinkedOperationID, old.AccountID)
	if err != nil {
		return nil, err
	}

	out, in := old, sibling
	if !out.IsOutgoingLeg() {
		out, in = sibling, old
	}

	// Reverse both old effects.
	if err := applyDelta(ctx, tx, out.AccountID, out.Amount.Cents); err != nil {
		return nil, err
	}
	if err := applyDelta(ctx, tx, in.AccountID, -in.Amount.Cents); err != nil {
		return nil, err
	}

	newOut, newIn := out, in
	for _, leg := range []*core.Operation{&newOut, &newIn} {
		leg.Amount = changes.Amount
		leg.CategoryID = changes.CategoryID
		leg.Date = changes.Date
		leg.Note = changes.Note
	}
	if changes.NewToAccountID != "" && changes.NewToAccountID != in.AccountID {
		if changes.NewToAccountID == out.AccountID {
			return nil, core.ErrSameAccountTransfer
		}
		// The incoming leg moves to the new destination account.
		newIn.AccountID = changes.NewToAccountID
		newOut.ToAccountID = changes.NewToAccountID
	}

	if err := writeTransferLeg(ctx, tx, newOut); err != nil {
		return nil, err
	}
	if err := writeTransferLeg(ctx, tx, newIn); err != nil {
		return nil, err
	}

	// Apply both new effects; the destination may be a different account now.
	if err := applyDelta(ctx, tx, newOut.AccountID, -newOut.Amount.Cents); err != nil {
		return nil, err
	}
	if err := applyDelta(ctx, tx, newIn.AccountID, newIn.Amount.Cents); err != nil {
		return nil, err
	}

	if old.IsOutgoingLeg() {
		return []core.Operation{newOut, newIn}, nil
	}
	return []core.Operation{newIn, newOut}, nil
}

// DeleteOperation reverses the operation's effect and removes the row; for a
// transfer, both legs and both reversals happen together or not at all.
// Returns the removed operation(s), primary first.
func (r *Repository) DeleteOperation(ctx context.Context, id string) ([]core.Operation, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete operation: %w", err)
	}
	defer tx.Rollback()

	op, err := getOperationTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	removed := []core.Operation{op}
	if op.Type == core.OperationTransfer {
		sibling, err := findLinkedTx(ctx, tx, op.LinkedOperationID, op.AccountID)
		if err != nil {
			return nil, err
		}
		removed = append(removed, sibling)
	}

	for _, rm := range removed {
		if err := applyDelta(ctx, tx, rm.AccountID, -core.Effect(rm, rm.AccountID)); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, rm.ID); err != nil {
			return nil, fmt.Errorf("delete operation %s: %w", rm.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete operation: %w", err)
	}
	return removed, nil
}

// --- export pipeline ---

// PendingExportOperations returns operations not yet exported, oldest first.
func (r *Repository) PendingExportOperations(ctx context.Context, limit int) ([]core.Operation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+operationColumns+` FROM operations
		 WHERE sync_status = 'pending' ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending operations: %w", err)
	}
	defer rows.Close()

	var ops []core.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (r *Repository) MarkExported(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, "synced")
}

func (r *Repository) MarkExportError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, "error")
}

func (r *Repository) setSyncStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE operations SET sync_status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	if err := requireRow(res, core.ErrOperationNotFound); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Operation sync status updated", "id", id, "status", status)
	return nil
}

// --- transaction helpers ---

// applyDelta adjusts a balance relative to its stored value, so concurrent
// transactions can never both build on a stale read.
func applyDelta(ctx context.Context, tx *sql.Tx, accountID string, deltaCents int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ? WHERE id = ?`, deltaCents, accountID)
	if err != nil {
		return fmt.Errorf("adjust balance of %s: %w", accountID, err)
	}
	return requireRow(res, core.ErrAccountNotFound)
}

func insertOperation(ctx context.Context, tx *sql.Tx, op core.Operation) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO operations
		 (id, account_id, type, amount_cents, category_id, date, note, created_at, linked_operation_id, to_account_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.AccountID, op.Type, op.Amount.Cents, op.CategoryID, op.Date.String(),
		op.Note, op.CreatedAt.UnixMilli(), nullable(op.LinkedOperationID), nullable(op.ToAccountID))
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

func writeOperationFields(ctx context.Context, tx *sql.Tx, op core.Operation) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE operations SET amount_cents = ?, category_id = ?, date = ?, note = ?, sync_status = 'pending'
		 WHERE id = ?`,
		op.Amount.Cents, op.CategoryID, op.Date.String(), op.Note, op.ID)
	if err != nil {
		return fmt.Errorf("update operation %s: %w", op.ID, err)
	}
	return requireRow(res, core.ErrOperationNotFound)
}

func writeTransferLeg(ctx context.Context, tx *sql.Tx, op core.Operation) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE operations
		 SET account_id = ?, to_account_id = ?, amount_cents = ?, category_id = ?, date = ?, note = ?,
		     sync_status = 'pending'
		 WHERE id = ?`,
		op.AccountID, op.ToAccountID, op.Amount.Cents, op.CategoryID, op.Date.String(), op.Note, op.ID)
	if err != nil {
		return fmt.Errorf("update transfer leg %s: %w", op.ID, err)
	}
	return requireRow(res, core.ErrOperationNotFound)
}

func getOperationTx(ctx context.Context, tx *sql.Tx, id string) (core.Operation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+operationColumns+` FROM operations WHERE id = ?`, id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Operation{}, core.ErrOperationNotFound
	}
	if err != nil {
		return core.Operation{}, fmt.Errorf("get operation: %w", err)
	}
	return op, nil
}

func findLinkedTx(ctx context.Context, tx *sql.Tx, linkedOperationID, excludingAccountID string) (core.Operation, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+operationColumns+` FROM operations
		 WHERE linked_operation_id = ? AND account_id != ?`, linkedOperationID, excludingAccountID)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Operation{}, core.ErrLinkedOperationMissing
	}
	if err != nil {
		return core.Operation{}, fmt.Errorf("find linked operation: %w", err)
	}
	return op, nil
}

func requireRow(res sql.Result, missing error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return missing
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
