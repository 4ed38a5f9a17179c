package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetgrid/fleetgrid/pkg/billing"
)

func testPlans() []billing.Plan {
	return []billing.Plan{
		{
			ID:   billing.PlanFree,
			Name: "Free",
			Limits: map[billing.Resource]int64{
				billing.ResourceUsers: 3,
				billing.ResourceSites: 1,
			},
			Features: []billing.Feature{billing.FeatureSupply},
		},
		{
			ID:   billing.PlanTrial,
			Name: "Trial",
			Limits: map[billing.Resource]int64{
				billing.ResourceUsers: 10,
				billing.ResourceSites: 5,
			},
			Features: []billing.Feature{billing.FeatureSupply, billing.FeatureMaintain},
		},
		{
			ID:     billing.PlanSmallBusiness,
			Name:   "Small Business",
			Price:  billing.Money{Amount: 5000000, Currency: "NGN"},
			Public: true,
			Limits: map[billing.Resource]int64{
				billing.ResourceUsers: 25,
				billing.ResourceSites: 20,
			},
			Features: []billing.Feature{billing.FeatureSupply, billing.FeatureMaintain},
		},
		{
			ID:     billing.PlanEnterprise,
			Name:   "Enterprise",
			Price:  billing.Money{Amount: 20000000, Currency: "NGN"},
			Public: true,
			Limits: map[billing.Resource]int64{
				billing.ResourceUsers: billing.Unlimited,
				billing.ResourceSites: billing.Unlimited,
			},
			Features: []billing.Feature{
				billing.FeatureSupply, billing.FeatureMaintain, billing.FeatureAPIAccess,
			},
		},
	}
}

func testCatalog(t *testing.T) *billing.Catalog {
	t.Helper()
	plans, err := billing.NewStaticSource(testPlans()...).Load(context.Background())
	require.NoError(t, err)
	catalog, err := billing.NewCatalog(plans)
	require.NoError(t, err)
	return catalog
}

func TestCatalog_Get(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(t)

	t.Run("returns known plan", func(t *testing.T) {
		t.Parallel()
		plan := catalog.Get(billing.PlanEnterprise)
		assert.Equal(t, billing.PlanEnterprise, plan.ID)
	})

	t.Run("unknown identifier fails closed to free", func(t *testing.T) {
		t.Parallel()
		plan := catalog.Get("platinum")
		assert.Equal(t, billing.PlanFree, plan.ID)
	})

	t.Run("empty identifier fails closed to free", func(t *testing.T) {
		t.Parallel()
		plan := catalog.Get("")
		assert.Equal(t, billing.PlanFree, plan.ID)
	})
}

func TestCatalog_Public(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(t)

	public := catalog.Public()
	require.Len(t, public, 2)
	// Sorted by price ascending.
	assert.Equal(t, billing.PlanSmallBusiness, public[0].ID)
	assert.Equal(t, billing.PlanEnterprise, public[1].ID)
}

func TestNewCatalog_Validation(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty plan set", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewCatalog(map[billing.PlanID]billing.Plan{})
		assert.ErrorIs(t, err, billing.ErrInvalidPlanConfiguration)
	})

	t.Run("requires a free plan entry", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewCatalog(map[billing.PlanID]billing.Plan{
			billing.PlanEnterprise: {ID: billing.PlanEnterprise},
		})
		assert.ErrorIs(t, err, billing.ErrInvalidPlanConfiguration)
	})

	t.Run("rejects key and ID mismatch", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewCatalog(map[billing.PlanID]billing.Plan{
			billing.PlanFree:  {ID: billing.PlanFree},
			billing.PlanTrial: {ID: billing.PlanEnterprise},
		})
		assert.ErrorIs(t, err, billing.ErrInvalidPlanConfiguration)
	})

	t.Run("rejects plans outside the closed set", func(t *testing.T) {
		t.Parallel()
		_, err := billing.NewCatalog(map[billing.PlanID]billing.Plan{
			billing.PlanFree: {ID: billing.PlanFree},
			"platinum":       {ID: "platinum"},
		})
		assert.ErrorIs(t, err, billing.ErrInvalidPlanConfiguration)
	})
}

func TestPlan_HasFeature(t *testing.T) {
	t.Parallel()
	catalog := testCatalog(t)

	free := catalog.Get(billing.PlanFree)
	assert.True(t, free.HasFeature(billing.FeatureSupply))
	assert.False(t, free.HasFeature(billing.FeatureMaintain))
}

func TestMoney_Format(t *testing.T) {
	t.Parallel()

	t.Run("known currency", func(t *testing.T) {
		t.Parallel()
		m := billing.Money{Amount: 5000000, Currency: "NGN"}
		formatted := m.Format()
		assert.Contains(t, formatted, "NGN")
		assert.Contains(t, formatted, "50,000")
	})

	t.Run("unknown currency falls back to raw code", func(t *testing.T) {
		t.Parallel()
		m := billing.Money{Amount: 1099, Currency: "XXZ"}
		assert.Contains(t, m.Format(), "XXZ")
	})
}
