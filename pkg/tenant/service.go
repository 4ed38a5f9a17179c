package tenant

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fleetgrid/fleetgrid/pkg/billing"
)

// Service provisions tenants. Registration creates the tenant record and
// its default trial subscription in one flow.
type Service struct {
	store   Store
	billing billing.Service
	log     *slog.Logger
}

func NewService(store Store, billingSvc billing.Service, log *slog.Logger) *Service {
	if store == nil {
		panic("tenant: Store is required")
	}
	if billingSvc == nil {
		panic("tenant: billing.Service is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, billing: billingSvc, log: log}
}

// RegisterRequest carries tenant registration input.
type RegisterRequest struct {
	Name         string `json:"name"`
	Subdomain    string `json:"subdomain"`
	ContactEmail string `json:"contact_email"`
}

// Register creates a tenant and starts its trial subscription.
// A tenant whose trial could not be started still exists; entitlement
// fails closed to the free plan until a subscription record appears.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Tenant, error) {
	t := &Tenant{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Subdomain:    strings.ToLower(strings.TrimSpace(req.Subdomain)),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	if _, err := s.billing.StartTrial(ctx, t.ID); err != nil {
		s.log.ErrorContext(ctx, "failed to start trial for new tenant",
			"tenant_id", t.ID, "error", err)
	}

	return t, nil
}

// Get retrieves a tenant by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.store.Get(ctx, id)
}
