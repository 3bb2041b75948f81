package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/iho/subscriptions/internal/adapter/http/dto"
	"github.com/iho/subscriptions/internal/adapter/http/middleware"
	"github.com/iho/subscriptions/internal/domain"
	"github.com/iho/subscriptions/internal/infrastructure/auth"
)

// setChiURLParam injects a chi route parameter into the request context.
func setChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withClaims injects an authenticated caller into the request context.
func withClaims(r *http.Request, userID, role, requestID string) *http.Request {
	claims := &auth.Claims{UserID: userID, Role: role, RequestID: requestID}

	return r.WithContext(context.WithValue(r.Context(), middleware.ClaimsContextKey, claims))
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"duplicate request", domain.ErrDuplicateRequest, http.StatusConflict},
		{"guard unavailable", domain.ErrGuardUnavailable, http.StatusServiceUnavailable},
		{"plan not found", domain.ErrPlanNotFound, http.StatusNotFound},
		{"subscription not found", domain.ErrSubscriptionNotFound, http.StatusNotFound},
		{"entry not found", domain.ErrLedgerEntryNotFound, http.StatusNotFound},
		{"extension limit", domain.ErrExtensionLimitExceeded, http.StatusUnprocessableEntity},
		{"expired token", domain.ErrExpiredToken, http.StatusUnauthorized},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			mapDomainError(rr, tt.err)

			if rr.Code != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, rr.Code)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "INVALID_REQUEST", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "INVALID_REQUEST" {
		t.Fatalf("expected error code to propagate, got %+v", resp)
	}
}
