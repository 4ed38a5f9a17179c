package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fleetgrid/fleetgrid/pkg/billing"
)

func TestEffectivePlan(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		stored   billing.PlanID
		status   billing.Status
		trialEnd *time.Time
		want     billing.PlanID
	}{
		{
			name:   "cancelled resolves to free regardless of stored plan",
			stored: billing.PlanEnterprise,
			status: billing.StatusCancelled,
			want:   billing.PlanFree,
		},
		{
			name:   "expired resolves to free regardless of stored plan",
			stored: billing.PlanSmallBusiness,
			status: billing.StatusExpired,
			want:   billing.PlanFree,
		},
		{
			name:     "cancelled trial resolves to free even with future trial end",
			stored:   billing.PlanTrial,
			status:   billing.StatusCancelled,
			trialEnd: &future,
			want:     billing.PlanFree,
		},
		{
			name:     "expired trial window resolves to free",
			stored:   billing.PlanTrial,
			status:   billing.StatusActive,
			trialEnd: &past,
			want:     billing.PlanFree,
		},
		{
			name:     "valid trial window resolves to trial",
			stored:   billing.PlanTrial,
			status:   billing.StatusActive,
			trialEnd: &future,
			want:     billing.PlanTrial,
		},
		{
			name:   "trial with no end set resolves to trial",
			stored: billing.PlanTrial,
			status: billing.StatusActive,
			want:   billing.PlanTrial,
		},
		{
			name:     "trial ending exactly now is still valid",
			stored:   billing.PlanTrial,
			status:   billing.StatusActive,
			trialEnd: &now,
			want:     billing.PlanTrial,
		},
		{
			name:   "active paid plan resolves to itself",
			stored: billing.PlanEnterprise,
			status: billing.StatusActive,
			want:   billing.PlanEnterprise,
		},
		{
			name:   "empty stored plan fails closed to free",
			stored: "",
			status: billing.StatusActive,
			want:   billing.PlanFree,
		},
		{
			name:   "unrecognized stored plan fails closed to free",
			stored: "platinum",
			status: billing.StatusActive,
			want:   billing.PlanFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := billing.EffectivePlan(tt.stored, tt.status, tt.trialEnd, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEffectivePlan_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	trialEnd := now.Add(-time.Hour)
	original := trialEnd

	_ = billing.EffectivePlan(billing.PlanTrial, billing.StatusActive, &trialEnd, now)

	// The resolver computes, it never writes back.
	assert.Equal(t, original, trialEnd)
}
