package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/subscriptions/internal/domain"
)

// PlanRepository implements usecase.PlanRepository on the subscription_plans
// table. Amounts are stored as NUMERIC and converted through pgtype.
type PlanRepository struct {
	pool *pgxpool.Pool
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

// Insert creates a plan row.
func (r *PlanRepository) Insert(ctx context.Context, plan *domain.SubscriptionPlan) error {
	query := `
		INSERT INTO subscription_plans (
			id, account_id, duration_type_id, name, description, amount,
			currency, features, active, created_at, updated_at, deleted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	features, err := marshalFeatures(plan.Features)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		plan.ID,
		plan.AccountID,
		plan.DurationTypeID,
		plan.Name,
		plan.Description,
		plan.Amount.String(),
		plan.Currency,
		features,
		plan.Active,
		plan.CreatedAt,
		plan.UpdatedAt,
		plan.DeletedAt,
	)

	return err
}

// GetByID retrieves a plan by ID, including soft-deleted rows.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*domain.SubscriptionPlan, error) {
	query := planSelect + ` WHERE id = $1`

	plan, err := scanPlan(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}

	return plan, err
}

// ListActiveByAccount retrieves the active plans offered by an account.
func (r *PlanRepository) ListActiveByAccount(ctx context.Context, accountID string) ([]*domain.SubscriptionPlan, error) {
	query := planSelect + `
		WHERE account_id = $1 AND active = TRUE AND deleted_at IS NULL
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*domain.SubscriptionPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

// FindActiveByAccountAndDurationType returns the single active plan for the
// pair, or nil when none exists.
func (r *PlanRepository) FindActiveByAccountAndDurationType(ctx context.Context, accountID, durationTypeID string) (*domain.SubscriptionPlan, error) {
	query := planSelect + `
		WHERE account_id = $1 AND duration_type_id = $2 AND active = TRUE AND deleted_at IS NULL
	`

	plan, err := scanPlan(r.pool.QueryRow(ctx, query, accountID, durationTypeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	return plan, err
}

// Update rewrites a plan's mutable fields.
func (r *PlanRepository) Update(ctx context.Context, plan *domain.SubscriptionPlan) error {
	query := `
		UPDATE subscription_plans
		SET name = $2, description = $3, amount = $4, currency = $5,
		    features = $6, updated_at = $7
		WHERE id = $1
	`

	features, err := marshalFeatures(plan.Features)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query,
		plan.ID,
		plan.Name,
		plan.Description,
		plan.Amount.String(),
		plan.Currency,
		features,
		plan.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}

	return nil
}

// Deactivate soft-deletes a plan.
func (r *PlanRepository) Deactivate(ctx context.Context, id string, deletedAt time.Time) error {
	query := `
		UPDATE subscription_plans
		SET active = FALSE, deleted_at = $2, updated_at = $2
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, deletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}

	return nil
}

const planSelect = `
	SELECT id, account_id, duration_type_id, name, description, amount,
	       currency, features, active, created_at, updated_at, deleted_at
	FROM subscription_plans
`

func scanPlan(row pgx.Row) (*domain.SubscriptionPlan, error) {
	var (
		plan     domain.SubscriptionPlan
		amount   pgtype.Numeric
		features []byte
	)

	err := row.Scan(
		&plan.ID,
		&plan.AccountID,
		&plan.DurationTypeID,
		&plan.Name,
		&plan.Description,
		&amount,
		&plan.Currency,
		&features,
		&plan.Active,
		&plan.CreatedAt,
		&plan.UpdatedAt,
		&plan.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	if plan.Amount, err = toDecimal(amount); err != nil {
		return nil, err
	}

	if len(features) > 0 {
		if err := json.Unmarshal(features, &plan.Features); err != nil {
			return nil, err
		}
	}

	return &plan, nil
}

func marshalFeatures(features map[string]any) ([]byte, error) {
	if features == nil {
		return nil, nil
	}
	return json.Marshal(features)
}

func toDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(n.Int.String())
	if err != nil {
		return decimal.Zero, err
	}

	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d, nil
}
