// Package tenantmodule exposes tenant registration over HTTP.
package tenantmodule

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetgrid/fleetgrid/pkg/tenant"
)

// Router mounts the tenant endpoints on a chi router.
func Router(svc *tenant.Service, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	h := &handlers{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/", h.register)
	r.Get("/{tenantID}", h.get)
	return r
}

type handlers struct {
	svc *tenant.Service
	log *slog.Logger
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req tenant.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	t, err := h.svc.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, tenant.ErrInvalidTenant):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, tenant.ErrTenantAlreadyExists):
			respondError(w, http.StatusConflict, "subdomain already taken")
		default:
			h.log.ErrorContext(r.Context(), "tenant registration failed", "error", err)
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, t)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tenant ID")
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, tenant.ErrTenantNotFound) {
		respondError(w, http.StatusNotFound, "tenant not found")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to load tenant", "tenant_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
