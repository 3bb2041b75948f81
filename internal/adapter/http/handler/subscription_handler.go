package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/subscriptions/internal/adapter/http/dto"
	"github.com/iho/subscriptions/internal/adapter/http/middleware"
	"github.com/iho/subscriptions/internal/usecase"
)

// SubscriptionHandler handles subscription intake and read endpoints.
type SubscriptionHandler struct {
	subscriptionUC *usecase.SubscriptionUseCase
	ledgerUC       *usecase.LedgerUseCase
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionUC *usecase.SubscriptionUseCase, ledgerUC *usecase.LedgerUseCase) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionUC: subscriptionUC, ledgerUC: ledgerUC}
}

// Subscribe handles POST /api/v1/subscriptions.
// Returns 202 with the ledger entry; processing continues asynchronously.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	var req dto.SubscribeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	entry, err := h.subscriptionUC.Subscribe(r.Context(), req.ToUseCaseInput(claims.UserID, claims.RequestID))
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.LedgerEntryFromDomain(entry))
}

// Extend handles POST /api/v1/subscriptions/{id}/extend.
func (h *SubscriptionHandler) Extend(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	subscriptionID := chi.URLParam(r, "id")
	if subscriptionID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "subscription id is required")
		return
	}

	var req dto.ExtendRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	entry, err := h.subscriptionUC.Extend(r.Context(), req.ToUseCaseInput(claims.UserID, subscriptionID, claims.RequestID))
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.LedgerEntryFromDomain(entry))
}

// EntryStatus handles GET /api/v1/entries/{id}. Callers poll this after the
// 202 from Subscribe or Extend to learn whether the command settled.
func (h *SubscriptionHandler) EntryStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	entry, err := h.ledgerUC.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}
	if entry.UserID != claims.UserID && claims.Role != middleware.RoleAdmin {
		writeError(w, http.StatusNotFound, "ENTRY_NOT_FOUND", "ledger entry not found")
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntryFromDomain(entry))
}

// ListMine handles GET /api/v1/subscriptions. With ?active=true only ACTIVE
// rows are returned.
func (h *SubscriptionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing caller identity")
		return
	}

	if r.URL.Query().Get("active") == "true" {
		list, err := h.subscriptionUC.GetActiveUserSubscriptions(r.Context(), claims.UserID)
		if err != nil {
			mapDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, dto.SubscriptionsFromDomain(list))
		return
	}

	list, err := h.subscriptionUC.GetUserSubscriptions(r.Context(), claims.UserID)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SubscriptionsFromDomain(list))
}
