package dto

import (
	"time"

	"github.com/iho/subscriptions/internal/domain"
)

// ErrorResponse is the common error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LedgerEntryResponse acknowledges an accepted command. The entry is still
// being processed when the caller sees it.
type LedgerEntryResponse struct {
	ID             string `json:"id"`
	IdempotencyKey string `json:"idempotency_key"`
	EventType      string `json:"event_type"`
	Status         string `json:"status"`
	RetryCount     int    `json:"retry_count"`
	ErrorMessage   string `json:"error_message,omitempty"`
	CreatedAt      string `json:"created_at"`
	CompletedAt    string `json:"completed_at,omitempty"`
	ProcessedAt    string `json:"processed_at,omitempty"`
}

// LedgerEntryFromDomain converts a domain ledger entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:             e.ID,
		IdempotencyKey: e.IdempotencyKey,
		EventType:      string(e.EventType),
		Status:         string(e.Status),
		RetryCount:     e.RetryCount,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
	if e.ErrorMessage != nil {
		resp.ErrorMessage = *e.ErrorMessage
	}
	if e.CompletedAt != nil {
		resp.CompletedAt = e.CompletedAt.Format(time.RFC3339)
	}
	if e.ProcessedAt != nil {
		resp.ProcessedAt = e.ProcessedAt.Format(time.RFC3339)
	}
	return resp
}

// SubscriptionResponse is the read-model view of one subscription.
type SubscriptionResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	AccountID      string `json:"account_id"`
	DurationTypeID string `json:"duration_type_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	LastUpdatedAt  string `json:"last_updated_at"`
}

// SubscriptionFromDomain converts a domain subscription to a response.
func SubscriptionFromDomain(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		AccountID:      s.AccountID,
		DurationTypeID: s.DurationTypeID,
		StartDate:      domain.FormatDate(s.StartDate),
		EndDate:        domain.FormatDate(s.EndDate),
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		LastUpdatedAt:  s.LastUpdatedAt.Format(time.RFC3339),
	}
}

// SubscriptionsFromDomain converts a list of subscriptions.
func SubscriptionsFromDomain(subs []*domain.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, SubscriptionFromDomain(s))
	}
	return out
}

// PlanResponse is the catalog view of one plan.
type PlanResponse struct {
	ID             string         `json:"id"`
	AccountID      string         `json:"account_id"`
	DurationTypeID string         `json:"duration_type_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Amount         string         `json:"amount"`
	Currency       string         `json:"currency"`
	Features       map[string]any `json:"features,omitempty"`
	Active         bool           `json:"active"`
	CreatedAt      string         `json:"created_at"`
	UpdatedAt      string         `json:"updated_at"`
}

// PlanFromDomain converts a domain plan to a response.
func PlanFromDomain(p *domain.SubscriptionPlan) PlanResponse {
	return PlanResponse{
		ID:             p.ID,
		AccountID:      p.AccountID,
		DurationTypeID: p.DurationTypeID,
		Name:           p.Name,
		Description:    p.Description,
		Amount:         p.Amount.String(),
		Currency:       p.Currency,
		Features:       p.Features,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
}

// PlansFromDomain converts a list of plans.
func PlansFromDomain(plans []*domain.SubscriptionPlan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanFromDomain(p))
	}
	return out
}

// AccountResponse is one subscribable account.
type AccountResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// AccountsFromDomain converts a list of accounts.
func AccountsFromDomain(accounts []*domain.SubscriptionAccount) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountResponse{
			ID:        a.ID,
			Name:      a.Name,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// DurationTypeResponse is one duration type reference row.
type DurationTypeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Days int    `json:"days"`
}

// DurationTypesFromDomain converts a list of duration types.
func DurationTypesFromDomain(types []*domain.DurationType) []DurationTypeResponse {
	out := make([]DurationTypeResponse, 0, len(types))
	for _, dt := range types {
		out = append(out, DurationTypeResponse{ID: dt.ID, Name: dt.Name, Days: dt.Days})
	}
	return out
}

// RuleResponse is one active business rule.
type RuleResponse struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// RulesFromDomain converts a list of rules.
func RulesFromDomain(rules []*domain.Rule) []RuleResponse {
	out := make([]RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, RuleResponse{
			ID:          r.ID,
			Key:         r.Key,
			Name:        r.Name,
			Value:       r.Value,
			Type:        r.Type,
			Description: r.Description,
		})
	}
	return out
}
