package handler

import (
	"net/http"

	"github.com/iho/subscriptions/internal/adapter/http/dto"
	"github.com/iho/subscriptions/internal/usecase"
)

// CatalogHandler serves reference data: accounts, duration types and rules.
type CatalogHandler struct {
	catalogUC *usecase.CatalogUseCase
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogUC *usecase.CatalogUseCase) *CatalogHandler {
	return &CatalogHandler{catalogUC: catalogUC}
}

// ListAccounts handles GET /api/v1/accounts.
func (h *CatalogHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.catalogUC.ListAccounts(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// ListDurationTypes handles GET /api/v1/duration-types.
func (h *CatalogHandler) ListDurationTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.catalogUC.ListDurationTypes(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DurationTypesFromDomain(types))
}

// ListRules handles GET /api/v1/rules. Admin only.
func (h *CatalogHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.catalogUC.ListActiveRules(r.Context())
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RulesFromDomain(rules))
}
