// internal/handler/audience_handler.go
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

type AudienceHandler struct {
	Repo     repository.AudienceRepositoryInterface
	Validate *validator.Validate
}

type audienceRequest struct {
	Name           string   `json:"name" validate:"required"`
	Type           string   `json:"type" validate:"required,oneof=interest custom_list"`
	AgeMin         *int     `json:"age_min" validate:"omitempty,gte=13"`
	AgeMax         *int     `json:"age_max" validate:"omitempty,lte=100"`
	Interests      []string `json:"interests"`
	Behaviors      []string `json:"behaviors"`
	Locations      []string `json:"locations" validate:"required,min=1"`
	CustomListFile string   `json:"custom_list_file"`
	EstimatedSize  *int     `json:"estimated_size"`
}

func (h *AudienceHandler) CreateAudience(w http.ResponseWriter, r *http.Request) {
	var body audienceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a := &model.Audience{
		TenantID:       middleware.TenantID(r.Context()),
		Name:           body.Name,
		Type:           body.Type,
		AgeMin:         body.AgeMin,
		AgeMax:         body.AgeMax,
		Interests:      body.Interests,
		Behaviors:      body.Behaviors,
		Locations:      body.Locations,
		CustomListFile: body.CustomListFile,
		EstimatedSize:  body.EstimatedSize,
	}
	if err := h.Repo.Create(a); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AudienceHandler) ListAudiences(w http.ResponseWriter, r *http.Request) {
	audiences, err := h.Repo.ListByTenant(middleware.TenantID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, audiences)
}

func (h *AudienceHandler) GetAudience(w http.ResponseWriter, r *http.Request) {
	a, err := h.Repo.GetByID(middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AudienceHandler) UpdateAudience(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())
	a, err := h.Repo.GetByID(tenantID, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	var body audienceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.Name = body.Name
	a.Type = body.Type
	a.AgeMin = body.AgeMin
	a.AgeMax = body.AgeMax
	a.Interests = body.Interests
	a.Behaviors = body.Behaviors
	a.Locations = body.Locations
	a.CustomListFile = body.CustomListFile
	a.EstimatedSize = body.EstimatedSize

	if err := h.Repo.Update(a); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AudienceHandler) DeleteAudience(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.Delete(middleware.TenantID(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
