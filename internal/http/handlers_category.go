package http

import (
	"net/http"

	"stashguard/internal/core"
	"stashguard/internal/services"
)

type categoryRequest struct {
	Name     string `json:"name"`
	Color    int64  `json:"color"`
	IconName string `json:"icon_name"`
	Type     string `json:"type"`
}

// handleListCategories lists all categories, or only those usable for one
// operation type when ?for_type=REVENUE|EXPENSE|TRANSFER is given.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var (
		categories []core.Category
		err        error
	)
	if forType := r.URL.Query().Get("for_type"); forType != "" {
		categories, err = s.ledger.ListCategoriesForType(r.Context(), core.OperationType(forType))
	} else {
		categories, err = s.ledger.ListCategories(r.Context())
	}
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	out := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := s.ledger.CreateCategory(r.Context(), services.CategoryInput{
		Name:     req.Name,
		Color:    req.Color,
		IconName: req.IconName,
		Type:     core.CategoryType(req.Type),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(category))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := s.ledger.UpdateCategory(r.Context(), r.PathValue("id"), services.CategoryInput{
		Name:     req.Name,
		Color:    req.Color,
		IconName: req.IconName,
		Type:     core.CategoryType(req.Type),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryDTO(category))
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
