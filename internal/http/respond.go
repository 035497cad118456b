package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"stashguard/internal/core"
)

// accountDTO is the wire shape of an account. Amounts travel as cents so
// clients never round.
type accountDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BalanceCents int64  `json:"balance_cents"`
	Color        int64  `json:"color"`
	IsDebt       bool   `json:"is_debt"`
	CreatedAt    string `json:"created_at"`
}

type categoryDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     int64  `json:"color"`
	IconName  string `json:"icon_name"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
}

type operationDTO struct {
	ID                string `json:"id"`
	AccountID         string `json:"account_id"`
	Type              string `json:"type"`
	AmountCents       int64  `json:"amount_cents"`
	CategoryID        string `json:"category_id"`
	Date              string `json:"date"`
	Note              string `json:"note,omitempty"`
	CreatedAt         string `json:"created_at"`
	LinkedOperationID string `json:"linked_operation_id,omitempty"`
	ToAccountID       string `json:"to_account_id,omitempty"`
}

type statisticsDTO struct {
	TotalRevenueCents       int64 `json:"total_revenue_cents"`
	TotalExpenseCents       int64 `json:"total_expense_cents"`
	NetChangeCents          int64 `json:"net_change_cents"`
	TransactionCount        int   `json:"transaction_count"`
	AverageTransactionCents int64 `json:"average_transaction_cents"`
}

type errorDTO struct {
	Error string `json:"error"`
}

func toAccountDTO(a core.Account) accountDTO {
	return accountDTO{
		ID:           a.ID,
		Name:         a.Name,
		BalanceCents: a.Balance.Cents,
		Color:        a.Color,
		IsDebt:       a.IsDebt,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}

func toCategoryDTO(c core.Category) categoryDTO {
	return categoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Color:     c.Color,
		IconName:  c.IconName,
		Type:      string(c.Type),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toOperationDTO(op core.Operation) operationDTO {
	return operationDTO{
		ID:                op.ID,
		AccountID:         op.AccountID,
		Type:              string(op.Type),
		AmountCents:       op.Amount.Cents,
		CategoryID:        op.CategoryID,
		Date:              op.Date.String(),
		Note:              op.Note,
		CreatedAt:         op.CreatedAt.Format(time.RFC3339),
		LinkedOperationID: op.LinkedOperationID,
		ToAccountID:       op.ToAccountID,
	}
}

func toOperationDTOs(ops []core.Operation) []operationDTO {
	out := make([]operationDTO, 0, len(ops))
	for _, op := range ops {
		out = append(out, toOperationDTO(op))
	}
	return out
}

func toStatisticsDTO(s core.Statistics) statisticsDTO {
	return statisticsDTO{
		TotalRevenueCents:       s.TotalRevenue.Cents,
		TotalExpenseCents:       s.TotalExpense.Cents,
		NetChangeCents:          s.NetChange.Cents,
		TransactionCount:        s.TransactionCount,
		AverageTransactionCents: s.AverageTransaction.Cents,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorDTO{Error: msg})
}

// writeDomainError maps the error taxonomy onto status codes: validation
// failures are 422, missing entities 404, a broken transfer pair 409, and
// anything else an opaque 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrOperationNotFound),
		errors.Is(err, core.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, core.ErrLinkedOperationMissing):
		writeError(w, http.StatusConflict, err.Error())

	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrBlankName),
		errors.Is(err, core.ErrNoteTooLong),
		errors.Is(err, core.ErrInvalidOperationType),
		errors.Is(err, core.ErrInvalidCategoryType),
		errors.Is(err, core.ErrSameAccountTransfer):
		writeError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON parses the request body into v, rejecting unknown fields so
// client typos surface as 400s instead of silently dropped data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
