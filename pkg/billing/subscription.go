package billing

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a tenant's billing record. Each tenant has exactly one,
// created at registration and mutated only by verified gateway events.
type Subscription struct {
	TenantID           uuid.UUID  // primary key - one subscription per tenant
	Plan               PlanID     // stored plan; entitlement may differ, see EffectivePlan
	Status             Status
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	TrialEnd           *time.Time // set only while on the trial plan
	CustomerRef        string     // opaque reference issued by the payment gateway
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewTrialSubscription returns the default subscription created at tenant
// registration: trial plan, active, trial window of the given duration.
func NewTrialSubscription(tenantID uuid.UUID, trialPeriod time.Duration, now time.Time) *Subscription {
	trialEnd := now.Add(trialPeriod)
	return &Subscription{
		TenantID:           tenantID,
		Plan:               PlanTrial,
		Status:             StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   trialEnd,
		TrialEnd:           &trialEnd,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// EffectivePlanAt resolves the plan the subscription entitles at the given time.
func (s *Subscription) EffectivePlanAt(now time.Time) PlanID {
	return EffectivePlan(s.Plan, s.Status, s.TrialEnd, now)
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// IsTrialExpiredAt reports whether the trial window has closed at the given time.
func (s *Subscription) IsTrialExpiredAt(now time.Time) bool {
	if s.TrialEnd == nil {
		return false
	}
	return s.TrialEnd.Before(now)
}

// TrialDaysRemainingAt returns the number of days left in the trial at
// a given time, rounding partial days up. Returns 0 outside of trial.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if s.Plan != PlanTrial || s.TrialEnd == nil {
		return 0
	}
	remaining := s.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := remaining.Hours() / 24
	return int(days + 0.5)
}
