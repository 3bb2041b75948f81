package domain

import "errors"

var (
	// Intake errors
	ErrDuplicateRequest    = errors.New("duplicate request detected")
	ErrGuardUnavailable    = errors.New("idempotency store unavailable")
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// Catalog errors
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrAccountNotFound      = errors.New("subscription account not found")
	ErrDurationTypeNotFound = errors.New("duration type not found")

	// Read model errors
	ErrSubscriptionNotFound    = errors.New("active subscription not found")
	ErrMaterializationConflict = errors.New("conflicting active subscription already exists")
	ErrExtensionLimitExceeded  = errors.New("extension exceeds maximum subscription duration")

	// State machine errors
	ErrInvalidStatusTransition = errors.New("invalid ledger status transition")
	ErrMissingAfterState       = errors.New("after state is required before completion")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)
