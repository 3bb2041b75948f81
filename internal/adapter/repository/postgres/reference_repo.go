package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/subscriptions/internal/domain"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.SubscriptionAccount, error) {
	query := `SELECT id, name, created_at FROM subscription_accounts WHERE id = $1`

	var account domain.SubscriptionAccount
	err := r.pool.QueryRow(ctx, query, id).Scan(&account.ID, &account.Name, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}

	return &account, err
}

// List retrieves all accounts.
func (r *AccountRepository) List(ctx context.Context) ([]*domain.SubscriptionAccount, error) {
	query := `SELECT id, name, created_at FROM subscription_accounts ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.SubscriptionAccount
	for rows.Next() {
		var account domain.SubscriptionAccount
		if err := rows.Scan(&account.ID, &account.Name, &account.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}

// DurationTypeRepository implements usecase.DurationTypeRepository.
type DurationTypeRepository struct {
	pool *pgxpool.Pool
}

// NewDurationTypeRepository creates a new DurationTypeRepository.
func NewDurationTypeRepository(pool *pgxpool.Pool) *DurationTypeRepository {
	return &DurationTypeRepository{pool: pool}
}

// GetByID retrieves a duration type by ID.
func (r *DurationTypeRepository) GetByID(ctx context.Context, id string) (*domain.DurationType, error) {
	query := `SELECT id, name, days FROM duration_types WHERE id = $1`

	var dt domain.DurationType
	err := r.pool.QueryRow(ctx, query, id).Scan(&dt.ID, &dt.Name, &dt.Days)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDurationTypeNotFound
	}

	return &dt, err
}

// List retrieves all duration types.
func (r *DurationTypeRepository) List(ctx context.Context) ([]*domain.DurationType, error) {
	query := `SELECT id, name, days FROM duration_types ORDER BY days`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*domain.DurationType
	for rows.Next() {
		var dt domain.DurationType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.Days); err != nil {
			return nil, err
		}
		types = append(types, &dt)
	}

	return types, rows.Err()
}

// RuleRepository implements usecase.RuleRepository on the rules_engine table.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository creates a new RuleRepository.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// GetByKey retrieves a rule by its well-known key; nil when absent.
func (r *RuleRepository) GetByKey(ctx context.Context, key string) (*domain.Rule, error) {
	query := ruleSelect + ` WHERE key = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	return rule, err
}

// ListActive retrieves all active rules.
func (r *RuleRepository) ListActive(ctx context.Context) ([]*domain.Rule, error) {
	query := ruleSelect + ` WHERE active = TRUE ORDER BY key`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

const ruleSelect = `
	SELECT id, key, name, value, type, description, active, created_at, updated_at
	FROM rules_engine
`

func scanRule(row pgx.Row) (*domain.Rule, error) {
	var rule domain.Rule
	err := row.Scan(
		&rule.ID,
		&rule.Key,
		&rule.Name,
		&rule.Value,
		&rule.Type,
		&rule.Description,
		&rule.Active,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}
