package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStore persists subscriptions. Each tenant has exactly one
// record, so TenantID is the primary key and Save is an upsert.
type SubscriptionStore interface {
	// Get retrieves a subscription by tenant ID.
	// Returns ErrSubscriptionNotFound if no subscription exists.
	Get(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// GetByCustomerRef retrieves a subscription by the gateway-issued
	// customer reference. Returns ErrUnknownCustomerRef when no
	// subscription carries the reference.
	GetByCustomerRef(ctx context.Context, customerRef string) (*Subscription, error)

	// Save creates or updates a subscription keyed by TenantID.
	Save(ctx context.Context, sub *Subscription) error
}

// EventLog records processed webhook event keys for idempotent delivery
// handling and auditing. Gateways redeliver events; the log lets the
// handler skip duplicates cheaply, while the mutations themselves stay
// idempotent so a log failure never threatens correctness.
//
// A key must only be marked after the event's mutation has been applied.
// A failed application leaves the key unrecorded so the gateway's
// redelivery gets processed instead of being skipped as a duplicate.
type EventLog interface {
	// Seen reports whether the event key has already been recorded.
	Seen(ctx context.Context, key string) (bool, error)

	// MarkProcessed records the event key after successful application.
	MarkProcessed(ctx context.Context, key string, at time.Time) error
}
