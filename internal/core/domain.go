package core

import (
	"errors"
	"strings"
	"time"
)

const (
	OperationRevenue  OperationType = "REVENUE"
	OperationExpense  OperationType = "EXPENSE"
	OperationTransfer OperationType = "TRANSFER"
)

const (
	CategoryRevenue CategoryType = "REVENUE"
	CategoryExpense CategoryType = "EXPENSE"
	CategoryBoth    CategoryType = "BOTH"
)

type (
	OperationType string

	CategoryType string

	// Date is a calendar date at midnight UTC. Operations carry a Date for the
	// user-facing journal; CreatedAt instants handle ordering and recency.
	Date struct {
		time.Time
	}

	// Money is an amount in cents. Operation amounts are always positive
	// magnitudes; account balances are signed.
	Money struct {
		Cents int64
	}

	Account struct {
		ID        string
		Name      string
		Balance   Money
		Color     int64 // opaque ARGB value, display only
		IsDebt    bool
		CreatedAt time.Time
	}

	Category struct {
		ID        string
		Name      string
		Color     int64
		IconName  string
		Type      CategoryType
		CreatedAt time.Time
	}

	// Operation is a single journal entry. A transfer is stored as two
	// Operation rows sharing a LinkedOperationID: the outgoing leg (whose ID
	// equals the pairing token) and the incoming leg, with swapped
	// AccountID/ToAccountID and equal amount, date and note.
	Operation struct {
		ID                string
		AccountID         string
		Type              OperationType
		Amount            Money
		CategoryID        string
		Date              Date
		Note              string
		CreatedAt         time.Time
		LinkedOperationID string // empty for non-transfers
		ToAccountID       string // empty for non-transfers
	}
)

var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidDate            = errors.New("invalid date")
	ErrBlankName              = errors.New("name is required")
	ErrNoteTooLong            = errors.New("note too long (max 200 characters)")
	ErrInvalidOperationType   = errors.New("invalid operation type")
	ErrInvalidCategoryType    = errors.New("invalid category type")
	ErrSameAccountTransfer    = errors.New("cannot transfer to the same account")
	ErrAccountNotFound        = errors.New("account not found")
	ErrOperationNotFound      = errors.New("operation not found")
	ErrCategoryNotFound       = errors.New("category not found")
	ErrLinkedOperationMissing = errors.New("linked transfer operation missing")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date like "2024-01-15".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates an instant to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t OperationType) Valid() bool {
	switch t {
	case OperationRevenue, OperationExpense, OperationTransfer:
		return true
	}
	return false
}

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryRevenue, CategoryExpense, CategoryBoth:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrBlankName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrBlankName
	}
	if !c.Type.Valid() {
		return ErrInvalidCategoryType
	}
	return nil
}

func (o Operation) Validate() error {
	if !o.Type.Valid() {
		return ErrInvalidOperationType
	}
	if err := o.Amount.Validate(); err != nil {
		return err
	}
	if err := o.Date.Validate(); err != nil {
		return err
	}
	if len(o.Note) > 200 {
		return ErrNoteTooLong
	}
	if o.Type == OperationTransfer {
		if o.ToAccountID == "" || o.LinkedOperationID == "" {
			return errors.New("transfer requires destination account and pairing token")
		}
		if o.ToAccountID == o.AccountID {
			return ErrSameAccountTransfer
		}
	} else if o.ToAccountID != "" || o.LinkedOperationID != "" {
		return errors.New("transfer fields set on non-transfer operation")
	}
	return nil
}

// IsOutgoingLeg reports whether a transfer row is the leg money leaves from.
// The pairing token is the outgoing leg's own operation id, so each stored row
// is self-describing without consulting its sibling.
func (o Operation) IsOutgoingLeg() bool {
	return o.Type == OperationTransfer && o.ID == o.LinkedOperationID
}
