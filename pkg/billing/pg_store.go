package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the PostgreSQL SubscriptionStore backed by a pgx pool.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const subscriptionColumns = `tenant_id, plan, status, current_period_start,
	current_period_end, trial_end, customer_ref, created_at, updated_at`

func (s *PGStore) Get(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1`, tenantID)
	return scanSubscription(row)
}

func (s *PGStore) GetByCustomerRef(ctx context.Context, customerRef string) (*Subscription, error) {
	if customerRef == "" {
		return nil, ErrUnknownCustomerRef
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE customer_ref = $1`, customerRef)
	sub, err := scanSubscription(row)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return nil, ErrUnknownCustomerRef
	}
	return sub, err
}

// Save upserts on tenant_id: one subscription per tenant is a table
// constraint, not just a convention.
func (s *PGStore) Save(ctx context.Context, sub *Subscription) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			trial_end = EXCLUDED.trial_end,
			customer_ref = EXCLUDED.customer_ref,
			updated_at = EXCLUDED.updated_at`,
		sub.TenantID, sub.Plan, sub.Status, sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd, sub.TrialEnd, sub.CustomerRef,
		sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	err := row.Scan(&sub.TenantID, &sub.Plan, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.TrialEnd,
		&sub.CustomerRef, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStorage, err)
	}
	return &sub, nil
}

// PGEventLog records processed event keys in the billing_events table.
type PGEventLog struct {
	pool *pgxpool.Pool
}

func NewPGEventLog(pool *pgxpool.Pool) *PGEventLog {
	return &PGEventLog{pool: pool}
}

func (l *PGEventLog) Seen(ctx context.Context, key string) (bool, error) {
	var seen bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM billing_events WHERE event_key = $1)`, key).
		Scan(&seen)
	if err != nil {
		return false, errors.Join(ErrStorage, err)
	}
	return seen, nil
}

func (l *PGEventLog) MarkProcessed(ctx context.Context, key string, at time.Time) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO billing_events (event_key, received_at)
		VALUES ($1, $2)
		ON CONFLICT (event_key) DO NOTHING`, key, at)
	if err != nil {
		return errors.Join(ErrStorage, err)
	}
	return nil
}
