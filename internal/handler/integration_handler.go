// internal/handler/integration_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/unclebandit/adpilot-backend/internal/middleware"
	"github.com/unclebandit/adpilot-backend/internal/model"
	"github.com/unclebandit/adpilot-backend/internal/repository"
)

type IntegrationHandler struct {
	Repo     repository.IntegrationRepositoryInterface
	Validate *validator.Validate
}

type integrationRequest struct {
	Provider string            `json:"provider" validate:"required,oneof=meta_ads google_drive"`
	Config   map[string]string `json:"config"`
	Status   string            `json:"status" validate:"omitempty,oneof=pending connected error"`
}

// UpsertIntegration creates or replaces the tenant's integration for a
// provider.
func (h *IntegrationHandler) UpsertIntegration(w http.ResponseWriter, r *http.Request) {
	var body integrationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	i := &model.Integration{
		TenantID: middleware.TenantID(r.Context()),
		Provider: body.Provider,
		Config:   body.Config,
		Status:   body.Status,
	}
	if err := h.Repo.Upsert(i); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (h *IntegrationHandler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.Repo.ListByTenant(middleware.TenantID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, integrations)
}

func (h *IntegrationHandler) GetIntegration(w http.ResponseWriter, r *http.Request) {
	i, err := h.Repo.GetByProvider(middleware.TenantID(r.Context()), chi.URLParam(r, "provider"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (h *IntegrationHandler) UpdateIntegrationStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status" validate:"required,oneof=pending connected error"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tenantID := middleware.TenantID(r.Context())
	provider := chi.URLParam(r, "provider")
	if err := h.Repo.UpdateStatus(tenantID, provider, body.Status); err != nil {
		respondError(w, err)
		return
	}

	i, err := h.Repo.GetByProvider(tenantID, provider)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}
