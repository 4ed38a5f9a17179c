package billing

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PlanID identifies a subscription plan. The set of plans is closed;
// anything outside it resolves to PlanFree at entitlement time.
type PlanID string

const (
	PlanTrial         PlanID = "trial"
	PlanFree          PlanID = "free"
	PlanSmallBusiness PlanID = "small_business"
	PlanEnterprise    PlanID = "enterprise"
)

// Known reports whether the plan ID belongs to the closed plan set.
func (p PlanID) Known() bool {
	switch p {
	case PlanTrial, PlanFree, PlanSmallBusiness, PlanEnterprise:
		return true
	}
	return false
}

// Status represents the stored state of a subscription.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// EventKind is the closed enumeration of billing events the webhook
// handler understands. Everything else maps to EventUnhandled and is
// acknowledged without any state change.
type EventKind string

const (
	EventPaymentConfirmed     EventKind = "payment_confirmed"
	EventSubscriptionDisabled EventKind = "subscription_disabled"
	EventUnhandled            EventKind = "unhandled"
)

// Resource represents a countable tenant resource constrained by plan limits.
type Resource string

const (
	ResourceUsers    Resource = "users"
	ResourceClusters Resource = "clusters"
	ResourceClients  Resource = "clients"
	ResourceSites    Resource = "sites"
)

// Unlimited indicates no limit for a resource (-1 for SQL compatibility).
const Unlimited int64 = -1

// Feature represents a plan-gated capability.
type Feature string

const (
	FeatureSupply        Feature = "supply"
	FeatureMaintain      Feature = "maintain"
	FeatureReports       Feature = "reports"
	FeatureBulkImport    Feature = "bulk_import"
	FeatureRealtimeFleet Feature = "realtime_fleet"
	FeatureAPIAccess     Feature = "api_access"
)

// Money represents a monetary amount in the smallest currency unit.
// NGN 50,000.00 is Amount: 5000000, Currency: "NGN".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount"`
	Currency string `json:"currency" yaml:"currency"`
}

// Format renders the amount with its currency symbol for display,
// e.g. "NGN 50,000.00". Unknown currency codes fall back to the raw code.
func (m Money) Format() string {
	unit, err := currency.ParseISO(m.Currency)
	if err != nil {
		p := message.NewPrinter(language.English)
		return p.Sprintf("%s %.2f", m.Currency, float64(m.Amount)/100)
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v %.2f", unit, float64(m.Amount)/100)
}

// UsageInfo contains the current usage and limit for a resource.
type UsageInfo struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}
