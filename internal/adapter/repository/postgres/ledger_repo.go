package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/subscriptions/internal/domain"
)

// pgErrUniqueViolation is the PostgreSQL code for a unique constraint hit.
const pgErrUniqueViolation = "23505"

// LedgerRepository implements usecase.LedgerRepository on the book_keeping
// table. The unique index on idempotency_key is the authoritative dedup
// backstop; Insert surfaces a violation as domain.ErrDuplicateRequest.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Insert appends a new ledger entry.
func (r *LedgerRepository) Insert(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO book_keeping (
			id, idempotency_key, user_id, plan_id, account_id, duration_type_id,
			event_type, status, before_state, after_state, payment_reference_id,
			retry_count, error_message, created_at, completed_at, processed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	beforeState, err := marshalState(entry.BeforeState)
	if err != nil {
		return err
	}
	afterState, err := marshalState(entry.AfterState)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		entry.ID,
		entry.IdempotencyKey,
		entry.UserID,
		entry.PlanID,
		entry.AccountID,
		entry.DurationTypeID,
		entry.EventType,
		entry.Status,
		beforeState,
		afterState,
		entry.PaymentReferenceID,
		entry.RetryCount,
		entry.ErrorMessage,
		entry.CreatedAt,
		entry.CompletedAt,
		entry.ProcessedAt,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return domain.ErrDuplicateRequest
	}

	return err
}

// GetByID retrieves a ledger entry by ID.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	query := ledgerSelect + ` WHERE id = $1`

	entry, err := r.scanOne(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLedgerEntryNotFound
	}

	return entry, err
}

// GetByIdempotencyKey retrieves a ledger entry by its deduplication key.
func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.LedgerEntry, error) {
	query := ledgerSelect + ` WHERE idempotency_key = $1`

	entry, err := r.scanOne(r.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLedgerEntryNotFound
	}

	return entry, err
}

// MarkCompleted transitions an INITIATED entry to COMPLETED.
func (r *LedgerRepository) MarkCompleted(ctx context.Context, id, paymentReferenceID string, completedAt time.Time) error {
	query := `
		UPDATE book_keeping
		SET status = $2, payment_reference_id = $3, completed_at = $4
		WHERE id = $1 AND status = $5
	`

	tag, err := r.pool.Exec(ctx, query, id, domain.StatusCompleted, paymentReferenceID, completedAt, domain.StatusInitiated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidStatusTransition
	}

	return nil
}

// MarkProcessed transitions a COMPLETED entry to PROCESSED.
func (r *LedgerRepository) MarkProcessed(ctx context.Context, id string, processedAt time.Time) error {
	query := `
		UPDATE book_keeping
		SET status = $2, processed_at = $3
		WHERE id = $1 AND status = $4
	`

	tag, err := r.pool.Exec(ctx, query, id, domain.StatusProcessed, processedAt, domain.StatusCompleted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidStatusTransition
	}

	return nil
}

// UpdateRetry persists the retry counter and any terminal failure state.
func (r *LedgerRepository) UpdateRetry(ctx context.Context, id string, retryCount int, status domain.LedgerStatus, errorMessage *string) error {
	query := `
		UPDATE book_keeping
		SET retry_count = $2, status = $3, error_message = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, retryCount, status, errorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLedgerEntryNotFound
	}

	return nil
}

// ListCompletedUnprocessed returns COMPLETED entries whose completion is older
// than the cutoff and that never reached PROCESSED.
func (r *LedgerRepository) ListCompletedUnprocessed(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error) {
	query := ledgerSelect + `
		WHERE status = $1 AND processed_at IS NULL AND completed_at < $2
		ORDER BY completed_at
		LIMIT $3
	`

	return r.scanMany(ctx, query, domain.StatusCompleted, olderThan, limit)
}

// ListStaleInitiated returns INITIATED entries created before the cutoff.
func (r *LedgerRepository) ListStaleInitiated(ctx context.Context, olderThan time.Time, limit int) ([]*domain.LedgerEntry, error) {
	query := ledgerSelect + `
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
		LIMIT $3
	`

	return r.scanMany(ctx, query, domain.StatusInitiated, olderThan, limit)
}

const ledgerSelect = `
	SELECT id, idempotency_key, user_id, plan_id, account_id, duration_type_id,
	       event_type, status, before_state, after_state, payment_reference_id,
	       retry_count, error_message, created_at, completed_at, processed_at
	FROM book_keeping
`

func (r *LedgerRepository) scanOne(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry       domain.LedgerEntry
		beforeState []byte
		afterState  []byte
	)

	err := row.Scan(
		&entry.ID,
		&entry.IdempotencyKey,
		&entry.UserID,
		&entry.PlanID,
		&entry.AccountID,
		&entry.DurationTypeID,
		&entry.EventType,
		&entry.Status,
		&beforeState,
		&afterState,
		&entry.PaymentReferenceID,
		&entry.RetryCount,
		&entry.ErrorMessage,
		&entry.CreatedAt,
		&entry.CompletedAt,
		&entry.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}

	if entry.BeforeState, err = unmarshalState(beforeState); err != nil {
		return nil, err
	}
	if entry.AfterState, err = unmarshalState(afterState); err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *LedgerRepository) scanMany(ctx context.Context, query string, args ...any) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func marshalState(state domain.State) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}

func unmarshalState(data []byte) (domain.State, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var state domain.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return state, nil
}
