package domain

import "time"

// EventType classifies what a ledger entry records.
type EventType string

const (
	EventSubscribed EventType = "SUBSCRIBED"
	EventExtended   EventType = "EXTENDED"
	EventCancelled  EventType = "CANCELLED"
	EventExpired    EventType = "EXPIRED"
)

// LedgerStatus is the processing state of a ledger entry.
//
// INITIATED --(payment success)--> COMPLETED --(materialization)--> PROCESSED
// COMPLETED falls to FAILED at the materialization retry cap; PROCESSED is
// terminal. A payment that never succeeds leaves the entry INITIATED, where
// the reconciliation sweep picks it up.
type LedgerStatus string

const (
	StatusInitiated LedgerStatus = "INITIATED"
	StatusCompleted LedgerStatus = "COMPLETED"
	StatusProcessed LedgerStatus = "PROCESSED"
	StatusFailed    LedgerStatus = "FAILED"
)

// MaxMaterializationRetries caps how many times a COMPLETED entry is retried
// before it is marked FAILED.
const MaxMaterializationRetries = 3

// State is an opaque snapshot of the subscription fields relevant to an event.
type State map[string]any

// LedgerEntry is the durable book-keeping record of an accepted command.
// Rows are append-only except for status and retry bookkeeping.
type LedgerEntry struct {
	ID                 string
	IdempotencyKey     string
	UserID             string
	PlanID             string
	AccountID          string
	DurationTypeID     string
	EventType          EventType
	Status             LedgerStatus
	BeforeState        State
	AfterState         State
	PaymentReferenceID *string
	RetryCount         int
	ErrorMessage       *string
	CreatedAt          time.Time
	CompletedAt        *time.Time
	ProcessedAt        *time.Time
}

// NewLedgerEntry stamps the fields every accepted command starts with.
func NewLedgerEntry(id, idempotencyKey, userID, planID, accountID, durationTypeID string, eventType EventType, before, after State, now time.Time) *LedgerEntry {
	return &LedgerEntry{
		ID:             id,
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		PlanID:         planID,
		AccountID:      accountID,
		DurationTypeID: durationTypeID,
		EventType:      eventType,
		Status:         StatusInitiated,
		BeforeState:    before,
		AfterState:     after,
		RetryCount:     0,
		CreatedAt:      now,
	}
}

// MarkCompleted transitions INITIATED -> COMPLETED once payment succeeded.
// AfterState must be present before completion.
func (e *LedgerEntry) MarkCompleted(paymentReferenceID string, at time.Time) error {
	if e.Status != StatusInitiated {
		return ErrInvalidStatusTransition
	}
	if e.AfterState == nil {
		return ErrMissingAfterState
	}

	e.Status = StatusCompleted
	e.PaymentReferenceID = &paymentReferenceID
	e.CompletedAt = &at

	return nil
}

// MarkProcessed transitions COMPLETED -> PROCESSED after materialization.
func (e *LedgerEntry) MarkProcessed(at time.Time) error {
	if e.Status != StatusCompleted {
		return ErrInvalidStatusTransition
	}

	e.Status = StatusProcessed
	e.ProcessedAt = &at

	return nil
}

// RecordMaterializationFailure increments the retry counter and marks the
// entry FAILED once the cap is reached. Returns true when the entry became
// terminal.
func (e *LedgerEntry) RecordMaterializationFailure(cause string) (bool, error) {
	if e.Status != StatusCompleted {
		return false, ErrInvalidStatusTransition
	}

	e.RetryCount++
	if e.RetryCount >= MaxMaterializationRetries {
		e.Status = StatusFailed
		e.ErrorMessage = &cause

		return true, nil
	}

	return false, nil
}
