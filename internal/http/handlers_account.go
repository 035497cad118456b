package http

import (
	"net/http"
	"strconv"
	"time"

	"stashguard/internal/core"
	"stashguard/internal/services"
)

type accountRequest struct {
	Name                string `json:"name"`
	InitialBalanceCents int64  `json:"initial_balance_cents,omitempty"`
	Color               int64  `json:"color"`
	IsDebt              bool   `json:"is_debt"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := s.ledger.CreateAccount(r.Context(), services.AccountInput{
		Name:           req.Name,
		InitialBalance: core.Money{Cents: req.InitialBalanceCents},
		Color:          req.Color,
		IsDebt:         req.IsDebt,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountDTO(account))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.ledger.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountDTO(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := s.ledger.UpdateAccount(r.Context(), r.PathValue("id"), services.AccountInput{
		Name:   req.Name,
		Color:  req.Color,
		IsDebt: req.IsDebt,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountDTO(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	ops, err := s.ledger.ListOperations(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTOs(ops))
}

// handleAccountStatistics serves the trailing-window aggregate for one
// account. Optional query params: as_of (ISO date, default today) and
// window_days (default 30). Results are cached until the next ledger write.
func (s *Server) handleAccountStatistics(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	asOf := core.DateOf(time.Now())
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := core.ParseDate(v)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		asOf = parsed
	}

	windowDays := core.DefaultStatisticsWindowDays
	if v := r.URL.Query().Get("window_days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid window_days")
			return
		}
		windowDays = n
	}

	key := accountID + "|" + asOf.String() + "|" + strconv.Itoa(windowDays)
	if stats, ok := s.statsCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toStatisticsDTO(stats))
		return
	}

	stats, err := s.ledger.AccountStatistics(r.Context(), accountID, asOf, windowDays)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	s.statsCache.Set(key, stats)
	writeJSON(w, http.StatusOK, toStatisticsDTO(stats))
}
