// internal/service/campaign_service.go
package service

import (
	"log"
	"time"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
	"github.com/unclebandit/adpilot-backend/internal/queue"
	"github.com/unclebandit/adpilot-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Queue        queue.Queue
}

// CampaignDraft carries the caller-editable campaign fields. Status is
// deliberately absent: it only moves through the state machine.
type CampaignDraft struct {
	Name        string             `json:"name"`
	Objective   string             `json:"objective"`
	AccountID   *string            `json:"account_id"`
	PageID      *string            `json:"page_id"`
	InstagramID *string            `json:"instagram_id"`
	WhatsappID  *string            `json:"whatsapp_id"`
	LeadFormID  *string            `json:"lead_form_id"`
	WebsiteURL  string             `json:"website_url"`
	AdSets      model.AdSetList    `json:"ad_sets"`
	Creatives   model.CreativeList `json:"creatives"`
}

func (s *CampaignService) CreateCampaign(tenantID string, draft CampaignDraft) (*model.Campaign, error) {
	if !model.ValidObjective(draft.Objective) {
		return nil, appErrors.NewPreconditionFailed("unknown objective: " + draft.Objective)
	}

	c := &model.Campaign{
		TenantID:    tenantID,
		Name:        draft.Name,
		Objective:   draft.Objective,
		Status:      model.StatusDraft,
		AccountID:   draft.AccountID,
		PageID:      draft.PageID,
		InstagramID: draft.InstagramID,
		WhatsappID:  draft.WhatsappID,
		LeadFormID:  draft.LeadFormID,
		WebsiteURL:  draft.WebsiteURL,
		AdSets:      draft.AdSets,
		Creatives:   draft.Creatives,
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) UpdateCampaign(tenantID, id string, draft CampaignDraft) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	if draft.Name != "" {
		c.Name = draft.Name
	}
	if draft.Objective != "" {
		if !model.ValidObjective(draft.Objective) {
			return nil, appErrors.NewPreconditionFailed("unknown objective: " + draft.Objective)
		}
		c.Objective = draft.Objective
	}
	if draft.AccountID != nil {
		c.AccountID = draft.AccountID
	}
	if draft.PageID != nil {
		c.PageID = draft.PageID
	}
	if draft.InstagramID != nil {
		c.InstagramID = draft.InstagramID
	}
	if draft.WhatsappID != nil {
		c.WhatsappID = draft.WhatsappID
	}
	if draft.LeadFormID != nil {
		c.LeadFormID = draft.LeadFormID
	}
	if draft.WebsiteURL != "" {
		c.WebsiteURL = draft.WebsiteURL
	}
	if draft.AdSets != nil {
		c.AdSets = draft.AdSets
	}
	if draft.Creatives != nil {
		c.Creatives = draft.Creatives
	}

	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) GetCampaign(tenantID, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(tenantID, id)
}

func (s *CampaignService) DeleteCampaign(tenantID, id string) error {
	return s.CampaignRepo.Delete(tenantID, id)
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(tenantID string, page, pageSize int, status, objective string) ([]*model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	campaigns, total, err := s.CampaignRepo.List(tenantID, offset, pageSize, status, objective)
	if err != nil {
		return nil, nil, err
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// PauseCampaign moves an active campaign to paused.
func (s *CampaignService) PauseCampaign(tenantID, id string) (*model.Campaign, error) {
	return s.transition(tenantID, id, []model.CampaignStatus{model.StatusActive}, model.StatusPaused, "")
}

// ResumeCampaign moves a paused campaign back to active.
func (s *CampaignService) ResumeCampaign(tenantID, id string) (*model.Campaign, error) {
	return s.transition(tenantID, id, []model.CampaignStatus{model.StatusPaused}, model.StatusActive, "")
}

// CompleteCampaign moves an active or paused campaign to its terminal state.
func (s *CampaignService) CompleteCampaign(tenantID, id string) (*model.Campaign, error) {
	return s.transition(tenantID, id, []model.CampaignStatus{model.StatusActive, model.StatusPaused}, model.StatusCompleted, "")
}

func (s *CampaignService) transition(tenantID, id string, from []model.CampaignStatus, to model.CampaignStatus, detail string) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(tenantID, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.CampaignRepo.UpdateStatus(tenantID, id, from, to, detail)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Row exists but was not in an eligible status (or moved under us).
		return nil, appErrors.NewPreconditionFailed(
			"campaign cannot move to " + string(to) + " from status " + string(c.Status))
	}

	s.publishStatusEvent(tenantID, id, c.Status, to, detail)

	c.Status = to
	c.StatusDetail = detail
	c.UpdatedAt = time.Now()
	return c, nil
}

func (s *CampaignService) publishStatusEvent(tenantID, id string, from, to model.CampaignStatus, detail string) {
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
