package http

import (
	"net/http"

	"stashguard/internal/core"
	"stashguard/internal/services"
)

type operationRequest struct {
	AccountID  string `json:"account_id"`
	Type       string `json:"type"`
	Amount     string `json:"amount"`
	CategoryID string `json:"category_id"`
	Date       string `json:"date"`
	Note       string `json:"note,omitempty"`
}

type transferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	CategoryID    string `json:"category_id"`
	Date          string `json:"date"`
	Note          string `json:"note,omitempty"`
}

type updateOperationRequest struct {
	Amount      string `json:"amount"`
	CategoryID  string `json:"category_id"`
	Date        string `json:"date"`
	Note        string `json:"note,omitempty"`
	ToAccountID string `json:"to_account_id,omitempty"`
}

// parseAmount accepts decimal strings like "12.34" or "12,34" and returns
// cents.
func parseAmount(w http.ResponseWriter, r *http.Request, raw string) (core.Money, bool) {
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		writeDomainError(w, r, err)
		return core.Money{}, false
	}
	return core.Money{Cents: cents}, true
}

func parseDate(w http.ResponseWriter, r *http.Request, raw string) (core.Date, bool) {
	date, err := core.ParseDate(raw)
	if err != nil {
		writeDomainError(w, r, err)
		return core.Date{}, false
	}
	return date, true
}

func (s *Server) handleCreateOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, ok := parseAmount(w, r, req.Amount)
	if !ok {
		return
	}
	date, ok := parseDate(w, r, req.Date)
	if !ok {
		return
	}

	op, err := s.ledger.RecordOperation(r.Context(), services.OperationInput{
		AccountID:  req.AccountID,
		Type:       core.OperationType(req.Type),
		Amount:     amount,
		CategoryID: req.CategoryID,
		Date:       date,
		Note:       req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOperationDTO(op))
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, ok := parseAmount(w, r, req.Amount)
	if !ok {
		return
	}
	date, ok := parseDate(w, r, req.Date)
	if !ok {
		return
	}

	out, in, err := s.ledger.RecordTransfer(r.Context(), services.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		CategoryID:    req.CategoryID,
		Date:          date,
		Note:          req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Outgoing operationDTO `json:"outgoing"`
		Incoming operationDTO `json:"incoming"`
	}{toOperationDTO(out), toOperationDTO(in)})
}

func (s *Server) handleGetOperation(w http.ResponseWriter, r *http.Request) {
	op, err := s.ledger.GetOperation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTO(op))
}

func (s *Server) handleUpdateOperation(w http.ResponseWriter, r *http.Request) {
	var req updateOperationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	amount, ok := parseAmount(w, r, req.Amount)
	if !ok {
		return
	}
	date, ok := parseDate(w, r, req.Date)
	if !ok {
		return
	}

	updated, err := s.ledger.UpdateOperation(r.Context(), r.PathValue("id"), services.UpdateInput{
		Amount:      amount,
		CategoryID:  req.CategoryID,
		Date:        date,
		Note:        req.Note,
		ToAccountID: req.ToAccountID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTOs(updated))
}

func (s *Server) handleDeleteOperation(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteOperation(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
