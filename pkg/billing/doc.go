// Package billing implements the subscription plan lifecycle for a
// multi-tenant SaaS: an immutable plan catalog, read-time entitlement
// resolution, hosted-checkout initialization against a payment gateway,
// and webhook-driven subscription state transitions.
//
// # Design
//
// Each tenant has exactly one subscription record, created at
// registration with a trial plan and mutated only by verified gateway
// events. Entitlement is computed, never stored: EffectivePlan derives
// the plan a tenant may use from the stored plan, status, and trial
// window at an explicit point in time, so trial expiry needs no
// background job and the resolver stays a pure, testable function.
//
// Webhook processing is built to survive the realities of gateway
// delivery: signatures are verified over the exact raw bytes before any
// parsing, duplicate deliveries are skipped through an EventLog and are
// harmless anyway because every mutation is an absolute assignment, and
// out-of-order confirm/disable pairs converge on the last event applied
// because each event carries its own terminal state. Only authentication
// failures produce a non-success response to the gateway; local storage
// faults are logged and acknowledged to avoid redelivery storms.
//
// # Quick start
//
//	src := billing.NewYAMLFileSource("config/plans.yml")
//	gw, _ := billing.NewPaystackGateway(paystackCfg)
//	svc, err := billing.NewService(ctx, src, gw,
//		billing.NewPGStore(pool), billing.NewPGEventLog(pool))
//
//	// at tenant registration
//	sub, err := svc.StartTrial(ctx, tenantID)
//
//	// request-time entitlement checks
//	if svc.HasFeature(ctx, tenantID, billing.FeatureMaintain) { ... }
package billing
