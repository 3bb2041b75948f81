package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/subscriptions/internal/domain"
)

// SubscriptionRepository implements usecase.SubscriptionRepository on the
// user_subscriptions table. A partial unique index guarantees at most one
// ACTIVE row per (user, account, duration type).
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

// Insert creates a subscription row.
func (r *SubscriptionRepository) Insert(ctx context.Context, sub *domain.Subscription) error {
	query := `
		INSERT INTO user_subscriptions (
			id, user_id, account_id, duration_type_id, start_date, end_date,
			status, created_at, last_updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.AccountID,
		sub.DurationTypeID,
		sub.StartDate,
		sub.EndDate,
		sub.Status,
		sub.CreatedAt,
		sub.LastUpdatedAt,
	)

	return err
}

// GetByID retrieves a subscription by ID.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	query := subscriptionSelect + ` WHERE id = $1`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSubscriptionNotFound
	}

	return sub, err
}

// FindActive returns the ACTIVE subscription for (user, account, duration
// type), or nil when none exists.
func (r *SubscriptionRepository) FindActive(ctx context.Context, userID, accountID, durationTypeID string) (*domain.Subscription, error) {
	query := subscriptionSelect + `
		WHERE user_id = $1 AND account_id = $2 AND duration_type_id = $3 AND status = $4
	`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, userID, accountID, durationTypeID, domain.SubscriptionActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	return sub, err
}

// UpdateEndDate moves a subscription's end date.
func (r *SubscriptionRepository) UpdateEndDate(ctx context.Context, id string, endDate, updatedAt time.Time) error {
	query := `
		UPDATE user_subscriptions
		SET end_date = $2, last_updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, endDate, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

// UpdateStatus transitions a subscription's lifecycle status.
func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus, updatedAt time.Time) error {
	query := `
		UPDATE user_subscriptions
		SET status = $2, last_updated_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, status, updatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

// ListByUser retrieves all subscriptions for a user, newest first.
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	query := subscriptionSelect + `
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.scanMany(ctx, query, userID)
}

// ListActiveByUser retrieves a user's ACTIVE subscriptions, newest first.
func (r *SubscriptionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	query := subscriptionSelect + `
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	return r.scanMany(ctx, query, userID, domain.SubscriptionActive)
}

// ExpireBefore marks every ACTIVE subscription ending before the cutoff as
// EXPIRED and returns the number of rows changed.
func (r *SubscriptionRepository) ExpireBefore(ctx context.Context, cutoff, updatedAt time.Time) (int64, error) {
	query := `
		UPDATE user_subscriptions
		SET status = $1, last_updated_at = $2
		WHERE status = $3 AND end_date < $4
	`

	tag, err := r.pool.Exec(ctx, query, domain.SubscriptionExpired, updatedAt, domain.SubscriptionActive, cutoff)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// ListActiveEndingBetween returns ACTIVE subscriptions whose end date falls in
// the inclusive window.
func (r *SubscriptionRepository) ListActiveEndingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	query := subscriptionSelect + `
		WHERE status = $1 AND end_date >= $2 AND end_date <= $3
		ORDER BY end_date
	`

	return r.scanMany(ctx, query, domain.SubscriptionActive, from, to)
}

const subscriptionSelect = `
	SELECT id, user_id, account_id, duration_type_id, start_date, end_date,
	       status, created_at, last_updated_at
	FROM user_subscriptions
`

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.AccountID,
		&sub.DurationTypeID,
		&sub.StartDate,
		&sub.EndDate,
		&sub.Status,
		&sub.CreatedAt,
		&sub.LastUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *SubscriptionRepository) scanMany(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	return subs, rows.Err()
}
