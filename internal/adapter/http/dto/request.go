package dto

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/subscriptions/internal/usecase"
)

// SubscribeRequest is the body of POST /subscriptions.
type SubscribeRequest struct {
	PlanID    string `json:"plan_id"`
	RequestID string `json:"request_id,omitempty"`
}

// Validate checks required fields.
func (r *SubscribeRequest) Validate() error {
	if r.PlanID == "" {
		return errors.New("plan_id is required")
	}
	return nil
}

// ToUseCaseInput converts the request to a use case input.
func (r *SubscribeRequest) ToUseCaseInput(userID, requestID string) usecase.SubscribeInput {
	if r.RequestID != "" {
		requestID = r.RequestID
	}
	return usecase.SubscribeInput{
		UserID:    userID,
		PlanID:    r.PlanID,
		RequestID: requestID,
	}
}

// ExtendRequest is the body of POST /subscriptions/{id}/extend.
type ExtendRequest struct {
	RequestID string `json:"request_id,omitempty"`
}

// ToUseCaseInput converts the request to a use case input.
func (r *ExtendRequest) ToUseCaseInput(userID, subscriptionID, requestID string) usecase.ExtendInput {
	if r.RequestID != "" {
		requestID = r.RequestID
	}
	return usecase.ExtendInput{
		UserID:         userID,
		SubscriptionID: subscriptionID,
		RequestID:      requestID,
	}
}

// CreatePlanRequest is the body of POST /plans.
type CreatePlanRequest struct {
	AccountID      string         `json:"account_id"`
	DurationTypeID string         `json:"duration_type_id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Amount         string         `json:"amount"`
	Currency       string         `json:"currency"`
	Features       map[string]any `json:"features,omitempty"`
}

// Validate checks required fields.
func (r *CreatePlanRequest) Validate() error {
	if r.AccountID == "" {
		return errors.New("account_id is required")
	}
	if r.DurationTypeID == "" {
		return errors.New("duration_type_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	if _, err := decimal.NewFromString(r.Amount); err != nil {
		return errors.New("amount must be a decimal number")
	}
	return nil
}

// ToUseCaseInput converts the request to a use case input.
func (r *CreatePlanRequest) ToUseCaseInput() (usecase.CreatePlanInput, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return usecase.CreatePlanInput{}, errors.New("amount must be a decimal number")
	}

	return usecase.CreatePlanInput{
		AccountID:      r.AccountID,
		DurationTypeID: r.DurationTypeID,
		Name:           r.Name,
		Description:    r.Description,
		Amount:         amount,
		Currency:       r.Currency,
		Features:       r.Features,
	}, nil
}

// UpdatePlanRequest is the body of PATCH /plans/{id}. Absent fields are left
// unchanged.
type UpdatePlanRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Amount      *string        `json:"amount,omitempty"`
	Currency    *string        `json:"currency,omitempty"`
	Features    map[string]any `json:"features,omitempty"`
}

// ToUseCaseInput converts the request to a use case input.
func (r *UpdatePlanRequest) ToUseCaseInput() (usecase.UpdatePlanInput, error) {
	input := usecase.UpdatePlanInput{
		Name:        r.Name,
		Description: r.Description,
		Currency:    r.Currency,
		Features:    r.Features,
	}

	if r.Amount != nil {
		amount, err := decimal.NewFromString(*r.Amount)
		if err != nil {
			return usecase.UpdatePlanInput{}, errors.New("amount must be a decimal number")
		}
		input.Amount = &amount
	}

	return input, nil
}
