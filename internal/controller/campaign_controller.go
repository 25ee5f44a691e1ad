// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/middleware"
	"github.com/unclebandit/adpilot-backend/internal/service"
)

type CampaignController struct {
	CampaignService   *service.CampaignService
	AutomationService *service.AutomationService
	Validate          *validator.Validate
}

type createCampaignRequest struct {
	Name      string `validate:"required"`
	Objective string `validate:"required,oneof=LEAD TRAFFIC WHATSAPP CONVERSIONS REACH"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var draft service.CampaignDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.Validate.Struct(createCampaignRequest{Name: draft.Name, Objective: draft.Objective}); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(middleware.TenantID(r.Context()), draft)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var draft service.CampaignDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"), draft)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.GetCampaign(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	err := c.CampaignService.DeleteCampaign(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")
	objective := r.URL.Query().Get("objective")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(
		middleware.TenantID(r.Context()), page, pageSize, status, objective)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

// SubmitCampaign hands the campaign off to the automation pipeline.
func (c *CampaignController) SubmitCampaign(w http.ResponseWriter, r *http.Request) {
	rec, err := c.AutomationService.Dispatch(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(rec)
}

func (c *CampaignController) PauseCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.PauseCampaign(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ResumeCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.ResumeCampaign(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) CompleteCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.CompleteCampaign(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

// ListAutomationRecords exposes the audit trail of dispatch attempts.
func (c *CampaignController) ListAutomationRecords(w http.ResponseWriter, r *http.Request) {
	records, err := c.AutomationService.ListRecords(
		middleware.TenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// writeError maps the error taxonomy onto HTTP statuses. Not-found covers
// tenant mismatches too, so cross-tenant probing is indistinguishable from
// a missing row.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound     *appErrors.NotFoundError
		precondition *appErrors.PreconditionFailedError
		conflict     *appErrors.ConflictError
		transport    *appErrors.TransportFailureError
	)

	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &precondition):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &conflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &transport):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
