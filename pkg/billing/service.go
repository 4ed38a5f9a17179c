package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fleetgrid/fleetgrid/pkg/email"
)

// BillingPeriod is how long a confirmed payment entitles the paid plan.
// Applied as an absolute assignment from the processing time, which keeps
// replayed confirmation events harmless.
const BillingPeriod = 30 * 24 * time.Hour

// DefaultTrialPeriod is the trial window granted at tenant registration.
const DefaultTrialPeriod = 14 * 24 * time.Hour

// UsageCounterFunc returns the current usage for a tenant resource.
// Must be fast, it runs on every resource creation attempt.
type UsageCounterFunc func(ctx context.Context, tenantID uuid.UUID) (int64, error)

// Service is the public interface for subscription lifecycle management.
type Service interface {
	// Subscription lifecycle
	StartTrial(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
	GetSubscription(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// Entitlement
	EffectivePlanFor(ctx context.Context, tenantID uuid.UUID) (PlanID, error)
	HasFeature(ctx context.Context, tenantID uuid.UUID, feature Feature) bool
	CanCreate(ctx context.Context, tenantID uuid.UUID, res Resource) error
	GetUsage(ctx context.Context, tenantID uuid.UUID, res Resource) (used, limit int64, err error)

	// Catalog
	Plans() []Plan
	PlanConfig(id PlanID) Plan

	// Gateway interactions
	InitializeCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	HandleWebhook(ctx context.Context, raw []byte, signature string) error
}

type service struct {
	catalog     *Catalog
	gateway     Gateway
	store       SubscriptionStore
	events      EventLog
	counters    map[Resource]UsageCounterFunc
	mailer      email.EmailSender
	log         *slog.Logger
	trialPeriod time.Duration
	now         func() time.Time
}

// NewService loads the plan catalog and wires the subscription service.
// Panics on nil required dependencies to fail fast during initialization.
func NewService(ctx context.Context, src PlanSource, gateway Gateway, store SubscriptionStore, events EventLog, opts ...ServiceOption) (Service, error) {
	if src == nil {
		panic("billing: PlanSource is required")
	}
	if gateway == nil {
		panic("billing: Gateway is required")
	}
	if store == nil {
		panic("billing: SubscriptionStore is required")
	}
	if events == nil {
		panic("billing: EventLog is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	catalog, err := NewCatalog(plans)
	if err != nil {
		return nil, err
	}

	s := &service{
		catalog:     catalog,
		gateway:     gateway,
		store:       store,
		events:      events,
		counters:    make(map[Resource]UsageCounterFunc),
		log:         slog.Default(),
		trialPeriod: DefaultTrialPeriod,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// StartTrial creates the default trial subscription for a freshly
// registered tenant. A tenant only ever gets one subscription record.
func (s *service) StartTrial(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	if _, err := s.store.Get(ctx, tenantID); err == nil {
		return nil, ErrSubscriptionAlreadyExists
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	sub := NewTrialSubscription(tenantID, s.trialPeriod, s.now())
	if err := s.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubscription retrieves a tenant's subscription.
func (s *service) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*Subscription, error) {
	return s.store.Get(ctx, tenantID)
}

// EffectivePlanFor resolves the tenant's entitlement at the current time.
// Tenants without a subscription record resolve to free: entitlement is
// never undefined.
func (s *service) EffectivePlanFor(ctx context.Context, tenantID uuid.UUID) (PlanID, error) {
	sub, err := s.store.Get(ctx, tenantID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		return PlanFree, nil
	}
	if err != nil {
		return PlanFree, err
	}
	return sub.EffectivePlanAt(s.now()), nil
}

// HasFeature checks feature availability under the tenant's effective
// plan. Returns false on any error to fail closed.
func (s *service) HasFeature(ctx context.Context, tenantID uuid.UUID, feature Feature) bool {
	planID, err := s.EffectivePlanFor(ctx, tenantID)
	if err != nil {
		return false
	}
	return s.catalog.Get(planID).HasFeature(feature)
}

// CanCreate checks whether the tenant may create one more instance of a
// resource under its effective plan limits.
func (s *service) CanCreate(ctx context.Context, tenantID uuid.UUID, res Resource) error {
	used, limit, err := s.GetUsage(ctx, tenantID, res)
	if err != nil {
		return err
	}
	if limit == Unlimited {
		return nil
	}
	if used >= limit {
		return ErrLimitExceeded
	}
	return nil
}

// GetUsage returns the current usage and limit for a resource.
func (s *service) GetUsage(ctx context.Context, tenantID uuid.UUID, res Resource) (int64, int64, error) {
	planID, err := s.EffectivePlanFor(ctx, tenantID)
	if err != nil {
		return 0, 0, err
	}

	limit, ok := s.catalog.Get(planID).Limit(res)
	if !ok {
		return 0, 0, ErrInvalidResource
	}

	counter, ok := s.counters[res]
	if !ok {
		return 0, 0, ErrNoCounterRegistered
	}
	used, err := counter(ctx, tenantID)
	if err != nil {
		return 0, 0, errors.Join(ErrStorage, err)
	}
	return used, limit, nil
}

// Plans returns the purchasable plan catalog.
func (s *service) Plans() []Plan {
	return s.catalog.Public()
}

// PlanConfig returns the configuration for a plan, failing closed to free.
func (s *service) PlanConfig(id PlanID) Plan {
	return s.catalog.Get(id)
}

// InitializeCheckout validates the request and creates a hosted checkout
// session at the gateway. A single attempt is made; the caller retries.
func (s *service) InitializeCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if err := s.validateCheckout(req); err != nil {
		return nil, err
	}
	return s.gateway.InitializeTransaction(ctx, req)
}

func (s *service) validateCheckout(req CheckoutRequest) error {
	if req.Email == "" {
		return errors.Join(ErrValidation, ErrMissingEmail)
	}
	if req.Amount <= 0 {
		return errors.Join(ErrValidation, ErrInvalidAmount)
	}
	if req.TenantID == "" {
		return errors.Join(ErrValidation, ErrMissingTenantID)
	}
	if _, err := uuid.Parse(req.TenantID); err != nil {
		return errors.Join(ErrValidation, ErrMissingTenantID, err)
	}
	plan, ok := s.catalog.Lookup(req.Plan)
	if !ok {
		return errors.Join(ErrValidation, ErrPlanNotFound)
	}
	if !plan.Public || plan.Price.Amount == 0 {
		return errors.Join(ErrValidation, ErrPlanNotPurchasable)
	}
	return nil
}

// HandleWebhook verifies and applies an inbound gateway event.
//
// Only an authentication failure is returned as an error; everything
// else is acknowledged so the gateway does not enter a redelivery storm
// over a fault that is local to us. Events with missing correlation
// metadata and event kinds this system does not act on are logged and
// dropped without touching any subscription. Duplicate deliveries are
// skipped via the event log, and the mutations themselves are absolute
// assignments, so a replay that slips past the log is still harmless.
//
// The event key is recorded only after the mutation has been applied.
// A transient storage fault leaves the key unrecorded, so the gateway's
// redelivery gets processed instead of being skipped as a duplicate.
func (s *service) HandleWebhook(ctx context.Context, raw []byte, signature string) error {
	event, err := s.gateway.VerifyAndParse(raw, signature)
	if err != nil {
		if errors.Is(err, ErrAuthentication) {
			return err
		}
		s.log.WarnContext(ctx, "discarding undecodable webhook payload", "error", err)
		return nil
	}

	if event.Kind == EventUnhandled {
		s.log.InfoContext(ctx, "ignoring unhandled webhook event",
			"provider_event", event.ProviderEvent)
		return nil
	}

	now := s.now()
	key := event.DedupKey()

	// Best-effort dedup check. A failing event log must not block the
	// event: the writes below are idempotent by construction.
	seen, err := s.events.Seen(ctx, key)
	if err != nil {
		s.log.ErrorContext(ctx, "event log unavailable, processing without dedup",
			"event_key", key, "error", err)
	} else if seen {
		s.log.InfoContext(ctx, "skipping duplicate webhook delivery", "event_key", key)
		return nil
	}

	var applyErr error
	switch event.Kind {
	case EventPaymentConfirmed:
		applyErr = s.applyPaymentConfirmed(ctx, event, now)
	case EventSubscriptionDisabled:
		applyErr = s.applySubscriptionDisabled(ctx, event, now)
	}
	if applyErr != nil {
		// Swallowed so the HTTP response stays a success, but the key is
		// not marked: the next redelivery retries the mutation.
		s.log.ErrorContext(ctx, "failed to apply webhook event, awaiting redelivery",
			"event_key", key, "error", applyErr)
		return nil
	}

	if err := s.events.MarkProcessed(ctx, key, now); err != nil {
		s.log.ErrorContext(ctx, "failed to record processed event",
			"event_key", key, "error", err)
	}
	return nil
}

// applyPaymentConfirmed activates the paid plan carried in the event
// metadata. A returned error means the mutation did not land and the
// event must stay eligible for redelivery; terminal drops (missing or
// unusable metadata) are logged and return nil.
func (s *service) applyPaymentConfirmed(ctx context.Context, event *Event, now time.Time) error {
	tenantID, err := uuid.Parse(event.TenantID)
	if err != nil || !event.Plan.Known() {
		// Never guess the target tenant from partial metadata.
		s.log.WarnContext(ctx, "payment confirmation lacks correlation metadata, dropping",
			"provider_event", event.ProviderEvent,
			"reference", event.Reference,
			"tenant_id", event.TenantID,
			"plan", string(event.Plan))
		return nil
	}

	sub, err := s.store.Get(ctx, tenantID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		sub = &Subscription{TenantID: tenantID, CreatedAt: now}
	case err != nil:
		return fmt.Errorf("load subscription for payment confirmation: %w", err)
	}

	// Absolute assignments: applying the same confirmation twice yields
	// the same record as applying it once.
	sub.Plan = event.Plan
	sub.Status = StatusActive
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = now.Add(BillingPeriod)
	sub.TrialEnd = nil
	if event.CustomerRef != "" {
		sub.CustomerRef = event.CustomerRef
	}
	sub.UpdatedAt = now

	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("persist payment confirmation: %w", err)
	}

	s.log.InfoContext(ctx, "subscription activated",
		"tenant_id", tenantID, "plan", string(event.Plan), "reference", event.Reference)

	s.sendReceipt(ctx, event)
	return nil
}

// applySubscriptionDisabled drops the tenant back to free entitlement.
// The subscription is located via the gateway's customer reference, the
// only correlation a disable event carries.
func (s *service) applySubscriptionDisabled(ctx context.Context, event *Event, now time.Time) error {
	sub, err := s.store.GetByCustomerRef(ctx, event.CustomerRef)
	if errors.Is(err, ErrUnknownCustomerRef) {
		s.log.WarnContext(ctx, "disable event for unknown customer reference, dropping",
			"provider_event", event.ProviderEvent, "customer_ref", event.CustomerRef)
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve subscription for disable event: %w", err)
	}

	sub.Plan = PlanFree
	sub.Status = StatusExpired
	sub.UpdatedAt = now

	if err := s.store.Save(ctx, sub); err != nil {
		return fmt.Errorf("persist subscription disable: %w", err)
	}

	s.log.InfoContext(ctx, "subscription disabled",
		"tenant_id", sub.TenantID, "customer_ref", event.CustomerRef)
	return nil
}

// sendReceipt emails a payment receipt when a mailer is configured.
// Strictly best-effort: a mail failure never affects event processing.
func (s *service) sendReceipt(ctx context.Context, event *Event) {
	if s.mailer == nil || event.CustomerEmail == "" {
		return
	}

	plan := s.catalog.Get(event.Plan)
	amount := Money{Amount: event.AmountMinor, Currency: event.Currency}
	body := fmt.Sprintf(
		"<p>Your payment of %s for the %s plan has been received.</p>"+
			"<p>Your subscription is active for the next 30 days.</p>",
		amount.Format(), plan.Name)

	if err := s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   event.CustomerEmail,
		Subject:  "Payment received - " + plan.Name + " plan",
		BodyHTML: body,
		Tag:      "payment-receipt",
	}); err != nil {
		s.log.WarnContext(ctx, "failed to send payment receipt",
			"email", event.CustomerEmail, "error", err)
	}
}
