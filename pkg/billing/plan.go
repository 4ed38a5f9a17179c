package billing

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Plan describes a subscription tier and its resource/feature constraints.
// Entries are immutable once loaded into a Catalog.
type Plan struct {
	ID          PlanID             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Price       Money              `yaml:"price"`
	Limits      map[Resource]int64 `yaml:"limits"` // -1 represents unlimited
	Features    []Feature          `yaml:"features"`
	Public      bool               `yaml:"public"` // available for self-service checkout
}

// HasFeature reports whether the plan includes the given capability.
func (p Plan) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// Limit returns the limit for a resource and whether the plan covers it.
func (p Plan) Limit(res Resource) (int64, bool) {
	limit, ok := p.Limits[res]
	return limit, ok
}

// Catalog is the process-wide plan configuration. It is loaded once at
// startup and never mutated afterwards, so lookups need no locking.
type Catalog struct {
	plans map[PlanID]Plan
}

// NewCatalog validates the plan set and returns an immutable Catalog.
// A free plan entry is mandatory: entitlement must never be undefined,
// and the free plan is what unknown IDs fail closed to.
func NewCatalog(plans map[PlanID]Plan) (*Catalog, error) {
	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	// Deep copy so later mutation of the caller's maps cannot leak in.
	copied := make(map[PlanID]Plan, len(plans))
	for id, plan := range plans {
		plan.Limits = maps.Clone(plan.Limits)
		plan.Features = slices.Clone(plan.Features)
		copied[id] = plan
	}
	return &Catalog{plans: copied}, nil
}

// Get returns the configuration for a plan. Unknown identifiers fail
// closed to the free entry rather than raising an error.
func (c *Catalog) Get(id PlanID) Plan {
	if plan, ok := c.plans[id]; ok {
		return plan
	}
	return c.plans[PlanFree]
}

// Lookup returns the plan and whether the ID is part of the catalog.
func (c *Catalog) Lookup(id PlanID) (Plan, bool) {
	plan, ok := c.plans[id]
	return plan, ok
}

// Public returns purchasable plans sorted by price ascending,
// for the self-service plan listing.
func (c *Catalog) Public() []Plan {
	result := make([]Plan, 0, len(c.plans))
	for _, plan := range c.plans {
		if plan.Public {
			result = append(result, plan)
		}
	}
	slices.SortFunc(result, func(a, b Plan) int {
		if a.Price.Amount != b.Price.Amount {
			return int(a.Price.Amount - b.Price.Amount)
		}
		return cmpString(string(a.ID), string(b.ID))
	})
	return result
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func validatePlans(plans map[PlanID]Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidPlanConfiguration, errors.New("no plans configured"))
	}
	if _, ok := plans[PlanFree]; !ok {
		return errors.Join(ErrInvalidPlanConfiguration, errors.New("free plan entry is required"))
	}
	for id, plan := range plans {
		if plan.ID != id {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", id, plan.ID))
		}
		if !id.Known() {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s is not part of the closed plan set", id))
		}
		if plan.Price.Amount < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has a negative price", id))
		}
	}
	return nil
}
