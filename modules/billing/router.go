// Package billingmodule exposes the payment HTTP surface: checkout
// initialization, the gateway webhook endpoint, and read-only catalog
// and subscription views for the dashboard.
package billingmodule

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetgrid/fleetgrid/pkg/billing"
)

// Router mounts the payment endpoints on a chi router.
//
//	r.Mount("/payment", billingmodule.Router(svc, "x-paystack-signature", log))
func Router(svc billing.Service, signatureHeader string, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	h := &handlers{svc: svc, signatureHeader: signatureHeader, log: log}

	r := chi.NewRouter()
	r.Post("/initialize", h.initialize)
	r.Post("/webhook", h.webhook)
	r.Get("/plans", h.plans)
	r.Get("/subscriptions/{tenantID}", h.subscription)
	return r
}

type handlers struct {
	svc             billing.Service
	signatureHeader string
	log             *slog.Logger
}

type initializeRequest struct {
	Email    string `json:"email"`
	Amount   int64  `json:"amount"` // minor currency units
	Plan     string `json:"plan"`
	TenantID string `json:"tenant_id"`
}

func (h *handlers) initialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	checkout, err := h.svc.InitializeCheckout(r.Context(), billing.CheckoutRequest{
		Email:    req.Email,
		Amount:   req.Amount,
		Plan:     billing.PlanID(req.Plan),
		TenantID: req.TenantID,
	})
	if err != nil {
		h.log.WarnContext(r.Context(), "checkout initialization failed", "error", err)
		switch {
		case errors.Is(err, billing.ErrValidation):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, billing.ErrGateway):
			// Surface the gateway's own message where available.
			respondError(w, http.StatusBadGateway, err.Error())
		case errors.Is(err, billing.ErrTransport):
			respondError(w, http.StatusBadGateway, "payment gateway unreachable")
		default:
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"checkout_url": checkout.URL,
		"reference":    checkout.Reference,
	})
}

// webhook accepts gateway deliveries. The raw body is read before any
// parsing because the signature covers the exact byte sequence. Every
// accepted-or-ignored event gets a success response; only a signature
// mismatch is rejected.
func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	signature := r.Header.Get(h.signatureHeader)
	if err := h.svc.HandleWebhook(r.Context(), raw, signature); err != nil {
		if errors.Is(err, billing.ErrAuthentication) {
			respondError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
		// HandleWebhook only errors on authentication failure; anything
		// else here is a programming error, still acknowledged to the
		// gateway to avoid redelivery storms.
		h.log.ErrorContext(r.Context(), "unexpected webhook handler error", "error", err)
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *handlers) plans(w http.ResponseWriter, r *http.Request) {
	plans := h.svc.Plans()
	out := make([]planView, 0, len(plans))
	for _, p := range plans {
		out = append(out, newPlanView(p))
	}
	respondJSON(w, http.StatusOK, map[string]any{"plans": out})
}

func (h *handlers) subscription(w http.ResponseWriter, r *http.Request) {
	tenantID, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	sub, err := h.svc.GetSubscription(r.Context(), tenantID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		respondError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to load subscription",
			"tenant_id", tenantID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	effective, err := h.svc.EffectivePlanFor(r.Context(), tenantID)
	if err != nil {
		effective = billing.PlanFree
	}

	respondJSON(w, http.StatusOK, newSubscriptionView(sub, effective))
}
