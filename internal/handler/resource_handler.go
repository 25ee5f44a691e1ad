// internal/handler/resource_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/middleware"
	"github.com/unclebandit/adpilot-backend/internal/model"
	"github.com/unclebandit/adpilot-backend/internal/repository"
)

// ResourceHandler holds the dependencies for resource HTTP handlers. The
// campaign repository is consulted so a resource still referenced by a
// campaign cannot be deleted.
type ResourceHandler struct {
	Repo         repository.ResourceRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	Validate     *validator.Validate
}

type resourceRequest struct {
	Type  string `json:"type" validate:"required,oneof=account page instagram whatsapp leadform website"`
	Name  string `json:"name" validate:"required"`
	Value string `json:"value" validate:"required"`
}

func (h *ResourceHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var body resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := &model.Resource{
		TenantID: middleware.TenantID(r.Context()),
		Type:     body.Type,
		Name:     body.Name,
		Value:    body.Value,
	}
	if err := h.Repo.Create(res); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ResourceHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.Repo.ListByTenant(middleware.TenantID(r.Context()), r.URL.Query().Get("type"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resources)
}

func (h *ResourceHandler) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.Repo.GetByID(middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ResourceHandler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())
	res, err := h.Repo.GetByID(tenantID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	var body struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.Name != "" {
		res.Name = body.Name
	}
	if body.Value != "" {
		res.Value = body.Value
	}

	if err := h.Repo.Update(res); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteResource rejects deletion while any campaign still references the
// resource.
func (h *ResourceHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())
	id := chi.URLParam(r, "id")

	count, err := h.CampaignRepo.CountReferencingResource(tenantID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	if count > 0 {
		respondError(w, appErrors.NewPreconditionFailed("resource is referenced by existing campaigns"))
		return
	}

	if err := h.Repo.Delete(tenantID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
