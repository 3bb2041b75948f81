package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/iho/subscriptions/internal/adapter/http/dto"
	"github.com/iho/subscriptions/internal/domain"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: code, Message: message})
}

// mapDomainError maps domain errors to HTTP responses.
func mapDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "DUPLICATE_REQUEST", "request already accepted")
	case errors.Is(err, domain.ErrGuardUnavailable):
		writeError(w, http.StatusServiceUnavailable, "GUARD_UNAVAILABLE", "please retry later")
	case errors.Is(err, domain.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "PLAN_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrDurationTypeNotFound):
		writeError(w, http.StatusNotFound, "DURATION_TYPE_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		writeError(w, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrLedgerEntryNotFound):
		writeError(w, http.StatusNotFound, "ENTRY_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrExtensionLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, "EXTENSION_LIMIT_EXCEEDED", err.Error())
	case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrExpiredToken):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return false
	}
	return true
}
