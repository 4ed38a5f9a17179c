package billingmodule

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetgrid/fleetgrid/pkg/billing"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// planView is the public plan listing shape with a formatted price.
type planView struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Price       billing.Money              `json:"price"`
	Display     string                     `json:"display_price"`
	Limits      map[billing.Resource]int64 `json:"limits"`
	Features    []billing.Feature          `json:"features"`
}

func newPlanView(p billing.Plan) planView {
	return planView{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Display:     p.Price.Format(),
		Limits:      p.Limits,
		Features:    p.Features,
	}
}

// subscriptionView pairs the stored record with the computed entitlement
// so the dashboard never has to re-implement the resolver.
type subscriptionView struct {
	TenantID           string     `json:"tenant_id"`
	Plan               string     `json:"plan"`
	EffectivePlan      string     `json:"effective_plan"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	TrialEnd           *time.Time `json:"trial_end,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func newSubscriptionView(sub *billing.Subscription, effective billing.PlanID) subscriptionView {
	return subscriptionView{
		TenantID:           sub.TenantID.String(),
		Plan:               string(sub.Plan),
		EffectivePlan:      string(effective),
		Status:             string(sub.Status),
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		TrialEnd:           sub.TrialEnd,
		UpdatedAt:          sub.UpdatedAt,
	}
}
