package billing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// PlanSource defines how the plan catalog is loaded at process start.
type PlanSource interface {
	Load(ctx context.Context) (map[PlanID]Plan, error)
}

type staticSource struct {
	plans map[PlanID]Plan
}

// NewStaticSource returns a PlanSource serving a fixed plan set.
// Panics if no plans are provided so a misconfigured service fails at startup.
func NewStaticSource(plans ...Plan) PlanSource {
	if len(plans) == 0 {
		panic("billing: at least one plan is required")
	}
	copied := make(map[PlanID]Plan, len(plans))
	for _, plan := range plans {
		plan.Limits = maps.Clone(plan.Limits)
		plan.Features = slices.Clone(plan.Features)
		copied[plan.ID] = plan
	}
	return &staticSource{plans: copied}
}

func (s *staticSource) Load(ctx context.Context) (map[PlanID]Plan, error) {
	copied := make(map[PlanID]Plan, len(s.plans))
	for id, plan := range s.plans {
		plan.Limits = maps.Clone(plan.Limits)
		plan.Features = slices.Clone(plan.Features)
		copied[id] = plan
	}
	return copied, nil
}

type yamlFileSource struct {
	path string
}

// NewYAMLFileSource returns a PlanSource reading the catalog from a YAML
// file. The expected shape is a top-level "plans" list of Plan entries.
func NewYAMLFileSource(path string) PlanSource {
	return &yamlFileSource{path: path}
}

func (s *yamlFileSource) Load(ctx context.Context) (map[PlanID]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(doc.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadPlans,
			fmt.Errorf("no plans defined in %s", s.path))
	}

	plans := make(map[PlanID]Plan, len(doc.Plans))
	for _, plan := range doc.Plans {
		if _, exists := plans[plan.ID]; exists {
			return nil, errors.Join(ErrFailedToLoadPlans,
				fmt.Errorf("duplicate plan ID %q in %s", plan.ID, s.path))
		}
		plans[plan.ID] = plan
	}
	return plans, nil
}
