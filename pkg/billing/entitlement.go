package billing

import "time"

// EffectivePlan derives the plan a tenant is actually entitled to from
// its stored subscription fields. It is a pure, total function: callers
// pass now explicitly, and the result is never persisted back. Trial
// expiry is purely time-driven with no background job marking it, so
// this must be re-evaluated on every entitlement check, never cached.
//
// Resolution order:
//  1. Cancelled or expired subscriptions entitle only the free plan,
//     regardless of the stored plan value.
//  2. A trial whose end has passed resolves to free. The stored plan is
//     left untouched.
//  3. A trial that is still valid, or has no end set, resolves to trial.
//  4. Otherwise the stored plan applies, failing closed to free when it
//     is empty or not part of the plan set.
func EffectivePlan(stored PlanID, status Status, trialEnd *time.Time, now time.Time) PlanID {
	if status == StatusCancelled || status == StatusExpired {
		return PlanFree
	}
	if stored == PlanTrial {
		if trialEnd != nil && trialEnd.Before(now) {
			return PlanFree
		}
		return PlanTrial
	}
	if !stored.Known() {
		return PlanFree
	}
	return stored
}
