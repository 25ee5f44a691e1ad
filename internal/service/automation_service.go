// internal/service/automation_service.go
package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
	"github.com/unclebandit/adpilot-backend/internal/queue"
	"github.com/unclebandit/adpilot-backend/internal/repository"
	"github.com/unclebandit/adpilot-backend/internal/webhook"
)

// AutomationService owns the campaign hand-off protocol: draft/error ->
// pending on dispatch, pending -> active/error on callback.
type AutomationService struct {
	CampaignRepo      repository.CampaignRepositoryInterface
	RecordRepo        repository.AutomationRecordRepositoryInterface
	IntegrationRepo   repository.IntegrationRepositoryInterface
	Sender            webhook.Sender
	Queue             queue.Queue
	DefaultWebhookURL string
}

// CallbackPayload is the inbound resolution from the external workflow
// engine. Delivery is at-least-once; Resolve must tolerate duplicates.
type CallbackPayload struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	TenantID   string `json:"tenant_id" validate:"required"`
	Outcome    string `json:"outcome" validate:"required,oneof=success error"`
	Detail     string `json:"detail"`
}

// dispatchPayload is the snapshot sent to the workflow engine. Built from
// copies of the campaign fields, never live references.
type dispatchPayload struct {
	CampaignID  string           `json:"campaign_id"`
	TenantID    string           `json:"tenant_id"`
	Name        string           `json:"name"`
	Objective   string           `json:"objective"`
	AccountID   string           `json:"account_id,omitempty"`
	PageID      string           `json:"page_id,omitempty"`
	InstagramID string           `json:"instagram_id,omitempty"`
	WhatsappID  string           `json:"whatsapp_id,omitempty"`
	LeadFormID  string           `json:"lead_form_id,omitempty"`
	WebsiteURL  string           `json:"website_url,omitempty"`
	AdSets      []model.AdSet    `json:"ad_sets"`
	Creatives   []model.Creative `json:"creatives"`
	SubmittedAt time.Time        `json:"submitted_at"`
}

// Dispatch submits a campaign to the external workflow engine. On HTTP-level
// acceptance the record moves to sent and the campaign to pending. On
// transport failure the record is failed and the campaign is untouched, so
// the caller may retry.
func (s *AutomationService) Dispatch(tenantID, campaignID string) (*model.AutomationRecord, error) {
	campaign, err := s.CampaignRepo.GetByID(tenantID, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status == model.StatusPending {
		return nil, appErrors.NewConflict(campaignID)
	}
	if campaign.Status != model.StatusDraft && campaign.Status != model.StatusError {
		return nil, appErrors.NewPreconditionFailed(
			fmt.Sprintf("campaign cannot be submitted in status %s", campaign.Status))
	}

	if err := validateSubmittable(campaign); err != nil {
		return nil, err
	}

	integ, err := s.requireConnected(tenantID, model.ProviderMetaAds)
	if err != nil {
		return nil, err
	}
	if needsDriveAssets(campaign) {
		if _, err := s.requireConnected(tenantID, model.ProviderGoogleDrive); err != nil {
			return nil, err
		}
	}

	webhookURL := integ.Config["webhook_url"]
	if webhookURL == "" {
		webhookURL = s.DefaultWebhookURL
	}
	if webhookURL == "" {
		return nil, appErrors.NewPreconditionFailed("no automation webhook URL configured")
	}

	payload, err := buildPayload(campaign)
	if err != nil {
		return nil, err
	}

	rec := &model.AutomationRecord{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		CampaignID: campaignID,
		WebhookURL: webhookURL,
		Payload:    payload,
	}

	// Claiming the in-flight slot and inserting the record is one atomic
	// unit; a concurrent dispatch loses with ConflictError here.
	if err := s.RecordRepo.Claim(rec); err != nil {
		return nil, err
	}

	if err := s.Sender.Send(webhookURL, payload); err != nil {
		if markErr := s.RecordRepo.MarkFailed(rec.ID, err.Error()); markErr != nil {
			log.Println("⚠️ failed to mark automation record failed:", markErr)
		}
		rec.Status = model.AutomationStatusFailed
		rec.Response = err.Error()
		return rec, appErrors.NewTransportFailure(webhookURL, err)
	}

	if err := s.RecordRepo.MarkSent(rec.ID); err != nil {
		return nil, err
	}
	rec.Status = model.AutomationStatusSent

	ok, err := s.CampaignRepo.UpdateStatus(tenantID, campaignID,
		[]model.CampaignStatus{model.StatusDraft, model.StatusError}, model.StatusPending, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		// Claim held the slot, so the campaign cannot have moved; log and go on.
		log.Println("⚠️ campaign", campaignID, "was not in a submittable status after claim")
	} else {
		s.publishStatusEvent(tenantID, campaignID, campaign.Status, model.StatusPending, "")
	}

	return rec, nil
}

// Resolve ingests a callback from the workflow engine. Idempotent: a
// duplicate callback for an already-resolved record returns the prior
// resolution; a callback with no record at all is a StaleCallbackError.
func (s *AutomationService) Resolve(cb CallbackPayload) (*model.AutomationRecord, error) {
	rec, err := s.RecordRepo.GetActive(cb.TenantID, cb.CampaignID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		latest, err := s.RecordRepo.GetLatest(cb.TenantID, cb.CampaignID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.Resolved() {
			log.Println("duplicate callback for campaign", cb.CampaignID, "- returning prior resolution")
			return latest, nil
		}
		return nil, appErrors.NewStaleCallback(cb.CampaignID)
	}

	newStatus := model.AutomationStatusSuccess
	campaignStatus := model.StatusActive
	detail := ""
	if cb.Outcome != "success" {
		newStatus = model.AutomationStatusFailed
		campaignStatus = model.StatusError
		detail = cb.Detail
		if detail == "" {
			detail = "rejected by automation"
		}
	}

	// CAS on this specific record id: a racing duplicate or a superseding
	// dispatch cannot double-resolve it.
	ok, err := s.RecordRepo.Resolve(rec.ID, newStatus, cb.Detail)
	if err != nil {
		return nil, err
	}
	if !ok {
		latest, err := s.RecordRepo.GetLatest(cb.TenantID, cb.CampaignID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.Resolved() {
			return latest, nil
		}
		return nil, appErrors.NewStaleCallback(cb.CampaignID)
	}

	moved, err := s.CampaignRepo.UpdateStatus(cb.TenantID, cb.CampaignID,
		[]model.CampaignStatus{model.StatusPending}, campaignStatus, detail)
	if err != nil {
		return nil, err
	}
	if moved {
		s.publishStatusEvent(cb.TenantID, cb.CampaignID, model.StatusPending, campaignStatus, detail)
	} else {
		log.Println("⚠️ campaign", cb.CampaignID, "was not pending when its callback resolved")
	}

	now := time.Now()
	rec.Status = newStatus
	rec.Response = cb.Detail
	rec.CompletedAt = &now
	return rec, nil
}

// ReconcileStale fails active records older than deadline so an engine that
// never answered does not block future submissions. Campaigns stuck in
// pending move to error with detail "timeout". Returns how many records it
// reconciled.
func (s *AutomationService) ReconcileStale(deadline time.Duration) (int, error) {
	stale, err := s.RecordRepo.FindStale(time.Now().Add(-deadline))
	if err != nil {
		return 0, err
	}

	reconciled := 0
	for _, rec := range stale {
		ok, err := s.RecordRepo.Resolve(rec.ID, model.AutomationStatusFailed, "timeout")
		if err != nil {
			log.Println("⚠️ failed to time out automation record", rec.ID, ":", err)
			continue
		}
		if !ok {
			continue // a callback won the race, leave it alone
		}

		moved, err := s.CampaignRepo.UpdateStatus(rec.TenantID, rec.CampaignID,
			[]model.CampaignStatus{model.StatusPending}, model.StatusError, "timeout")
		if err != nil {
			log.Println("⚠️ failed to mark campaign", rec.CampaignID, "errored:", err)
		} else if moved {
			s.publishStatusEvent(rec.TenantID, rec.CampaignID, model.StatusPending, model.StatusError, "timeout")
		}
		reconciled++
	}

	return reconciled, nil
}

// ListRecords returns the audit trail of dispatch attempts for a campaign.
func (s *AutomationService) ListRecords(tenantID, campaignID string) ([]*model.AutomationRecord, error) {
	if _, err := s.CampaignRepo.GetByID(tenantID, campaignID); err != nil {
		return nil, err
	}
	return s.RecordRepo.ListByCampaign(tenantID, campaignID)
}

func (s *AutomationService) requireConnected(tenantID, provider string) (*model.Integration, error) {
	integ, err := s.IntegrationRepo.GetByProvider(tenantID, provider)
	if err != nil {
		if appErrors.IsNotFound(err) {
			return nil, appErrors.NewPreconditionFailed(provider + " integration is not connected")
		}
		return nil, err
	}
	if integ.Status != model.IntegrationStatusConnected {
		return nil, appErrors.NewPreconditionFailed(provider + " integration is not connected")
	}
	return integ, nil
}

func (s *AutomationService) publishStatusEvent(tenantID, id string, from, to model.CampaignStatus, detail string) {
	if s.Queue == nil {
		return
	}
	err := s.Queue.Publish(queue.TopicStatusEvents, queue.StatusEvent{
		TenantID:   tenantID,
		CampaignID: id,
		From:       from,
		To:         to,
		Detail:     detail,
	})
	if err != nil {
		log.Println("⚠️ failed to publish status event:", err)
	}
}

// validateSubmittable checks the submit() guards: at least one ad set and
// creative, plus the resource references the objective requires.
func validateSubmittable(c *model.Campaign) error {
	if len(c.AdSets) == 0 {
		return appErrors.NewPreconditionFailed("missing ad set")
	}
	if len(c.Creatives) == 0 {
		return appErrors.NewPreconditionFailed("missing creative")
	}
	if c.AccountID == nil || *c.AccountID == "" {
		return appErrors.NewPreconditionFailed("missing ad account reference")
	}
	if c.PageID == nil || *c.PageID == "" {
		return appErrors.NewPreconditionFailed("missing page reference")
	}

	switch c.Objective {
	case model.ObjectiveLead:
		if c.LeadFormID == nil || *c.LeadFormID == "" {
			return appErrors.NewPreconditionFailed("missing lead form reference")
		}
	case model.ObjectiveWhatsapp:
		if c.WhatsappID == nil || *c.WhatsappID == "" {
			return appErrors.NewPreconditionFailed("missing whatsapp reference")
		}
	case model.ObjectiveTraffic, model.ObjectiveConversions:
		if c.WebsiteURL == "" {
			return appErrors.NewPreconditionFailed("missing website URL")
		}
	}
	return nil
}

func needsDriveAssets(c *model.Campaign) bool {
	for _, cr := range c.Creatives {
		if cr.AssetFolderRef != "" {
			return true
		}
	}
	return false
}

func buildPayload(c *model.Campaign) (json.RawMessage, error) {
	p := dispatchPayload{
		CampaignID:  c.ID,
		TenantID:    c.TenantID,
		Name:        c.Name,
		Objective:   c.Objective,
		WebsiteURL:  c.WebsiteURL,
		AdSets:      append([]model.AdSet{}, c.AdSets...),
		Creatives:   append([]model.Creative{}, c.Creatives...),
		SubmittedAt: time.Now(),
	}
	if c.AccountID != nil {
		p.AccountID = *c.AccountID
	}
	if c.PageID != nil {
		p.PageID = *c.PageID
	}
	if c.InstagramID != nil {
		p.InstagramID = *c.InstagramID
	}
	if c.WhatsappID != nil {
		p.WhatsappID = *c.WhatsappID
	}
	if c.LeadFormID != nil {
		p.LeadFormID = *c.LeadFormID
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to build automation payload: %w", err)
	}
	return b, nil
}
