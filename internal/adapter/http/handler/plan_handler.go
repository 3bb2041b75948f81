package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/subscriptions/internal/adapter/http/dto"
	"github.com/iho/subscriptions/internal/usecase"
)

// PlanHandler handles the plan catalog endpoints.
type PlanHandler struct {
	planUC *usecase.PlanUseCase
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planUC *usecase.PlanUseCase) *PlanHandler {
	return &PlanHandler{planUC: planUC}
}

// Get handles GET /api/v1/plans/{id}.
func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.planUC.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PlanFromDomain(plan))
}

// ListByAccount handles GET /api/v1/accounts/{id}/plans.
func (h *PlanHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	plans, err := h.planUC.ListActivePlans(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PlansFromDomain(plans))
}

// Create handles POST /api/v1/plans. Admin only.
func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	plan, err := h.planUC.CreatePlan(r.Context(), input)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PlanFromDomain(plan))
}

// Update handles PATCH /api/v1/plans/{id}. Admin only.
func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePlanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	plan, err := h.planUC.UpdatePlan(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PlanFromDomain(plan))
}

// Delete handles DELETE /api/v1/plans/{id}. Admin only. Rows are soft
// deleted so historical ledger entries keep a valid plan reference.
func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.planUC.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		mapDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
