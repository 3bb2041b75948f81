package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionPlan is a purchasable plan belonging to an account.
// Only one plan per (account, duration type) is active at a time.
type SubscriptionPlan struct {
	ID             string
	AccountID      string
	DurationTypeID string
	Name           string
	Description    string
	Amount         decimal.Decimal
	Currency       string
	Features       map[string]any
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

// SubscriptionAccount is the provider an end user subscribes to.
type SubscriptionAccount struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// DurationType is a reference row defining how long a plan runs.
type DurationType struct {
	ID   string
	Name string
	Days int
}

// Rule is a configurable business rule loaded from storage.
type Rule struct {
	ID          string
	Key         string
	Name        string
	Value       string
	Type        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Well-known rule keys.
const (
	RuleMaxSubscriptionDurationDays = "max_subscription_duration_days"
	RuleMaxExtensionDays            = "max_extension_days"
)
