package service_test

import (
	"fmt"
	"strings"
	"sync"
	"time"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
	"github.com/unclebandit/adpilot-backend/internal/repository"
)

// --- In-memory mock repositories ---

type mockCampaignRepo struct {
	mu        sync.Mutex
	seq       int
	campaigns map[string]*model.Campaign // keyed by tenantID+"/"+id
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{campaigns: map[string]*model.Campaign{}}
}

func campaignKey(tenantID, id string) string { return tenantID + "/" + id }

func (m *mockCampaignRepo) add(c *model.Campaign) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.campaigns[campaignKey(c.TenantID, c.ID)] = &cp
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		m.seq++
		c.ID = fmt.Sprintf("camp-%d", m.seq)
	}
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	m.campaigns[campaignKey(c.TenantID, c.ID)] = &cp
	return nil
}

func (m *mockCampaignRepo) GetByID(tenantID, id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignKey(tenantID, id)]
	if !ok {
		return nil, appErrors.NewNotFound("campaign", id)
	}
	cp := *c
	return &cp, nil
}

func (m *mockCampaignRepo) List(tenantID string, offset, limit int, status, objective string) ([]*model.Campaign, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filtered := []*model.Campaign{}
	for key, c := range m.campaigns {
		if !strings.HasPrefix(key, tenantID+"/") {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		if objective != "" && c.Objective != objective {
			continue
		}
		cp := *c
		filtered = append(filtered, &cp)
	}
	total := len(filtered)
	if offset > total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return filtered[offset:end], total, nil
}

func (m *mockCampaignRepo) Update(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.campaigns[campaignKey(c.TenantID, c.ID)]
	if !ok {
		return appErrors.NewNotFound("campaign", c.ID)
	}
	c.UpdatedAt = time.Now()
	cp := *c
	cp.Status = existing.Status
	cp.StatusDetail = existing.StatusDetail
	m.campaigns[campaignKey(c.TenantID, c.ID)] = &cp
	return nil
}

func (m *mockCampaignRepo) Delete(tenantID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[campaignKey(tenantID, id)]; !ok {
		return appErrors.NewNotFound("campaign", id)
	}
	delete(m.campaigns, campaignKey(tenantID, id))
	return nil
}

func (m *mockCampaignRepo) UpdateStatus(tenantID, id string, from []model.CampaignStatus, to model.CampaignStatus, detail string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignKey(tenantID, id)]
	if !ok {
		return false, nil
	}
	eligible := false
	for _, f := range from {
		if c.Status == f {
			eligible = true
			break
		}
	}
	if !eligible {
		return false, nil
	}
	c.Status = to
	c.StatusDetail = detail
	c.UpdatedAt = time.Now()
	return true, nil
}

func (m *mockCampaignRepo) CountReferencingResource(tenantID, resourceID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for key, c := range m.campaigns {
		if !strings.HasPrefix(key, tenantID+"/") {
			continue
		}
		for _, ref := range []*string{c.AccountID, c.PageID, c.InstagramID, c.WhatsappID, c.LeadFormID} {
			if ref != nil && *ref == resourceID {
				count++
				break
			}
		}
	}
	return count, nil
}

func (m *mockCampaignRepo) status(tenantID, id string) model.CampaignStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[campaignKey(tenantID, id)]
	if !ok {
		return ""
	}
	return c.Status
}

var _ repository.CampaignRepositoryInterface = (*mockCampaignRepo)(nil)

// mockRecordRepo holds automation records in memory. Claim shares the
// campaign repo's view so the submittable guard and the single-active
// invariant hold under the same lock, like the SQL transaction does.
type mockRecordRepo struct {
	mu        sync.Mutex
	campaigns *mockCampaignRepo
	records   []*model.AutomationRecord
}

func newMockRecordRepo(campaigns *mockCampaignRepo) *mockRecordRepo {
	return &mockRecordRepo{campaigns: campaigns}
}

func (m *mockRecordRepo) Claim(rec *model.AutomationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := m.campaigns.status(rec.TenantID, rec.CampaignID)
	if status == "" {
		return appErrors.NewNotFound("campaign", rec.CampaignID)
	}
	if status == model.StatusPending {
		return appErrors.NewConflict(rec.CampaignID)
	}
	if status != model.StatusDraft && status != model.StatusError {
		return appErrors.NewPreconditionFailed("campaign cannot be submitted in status " + string(status))
	}

	for _, r := range m.records {
		if r.CampaignID == rec.CampaignID && r.TenantID == rec.TenantID && r.Active() {
			return appErrors.NewConflict(rec.CampaignID)
		}
	}

	rec.Status = model.AutomationStatusPending
	rec.CreatedAt = time.Now()
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockRecordRepo) GetActive(tenantID, campaignID string) (*model.AutomationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.CampaignID == campaignID && r.TenantID == tenantID && r.Active() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRecordRepo) GetLatest(tenantID, campaignID string) (*model.AutomationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.CampaignID == campaignID && r.TenantID == tenantID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRecordRepo) ListByCampaign(tenantID, campaignID string) ([]*model.AutomationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.AutomationRecord{}
	for _, r := range m.records {
		if r.CampaignID == campaignID && r.TenantID == tenantID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRecordRepo) MarkSent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.Status == model.AutomationStatusPending {
			r.Status = model.AutomationStatusSent
		}
	}
	return nil
}

func (m *mockRecordRepo) MarkFailed(id, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.Active() {
			r.Status = model.AutomationStatusFailed
			r.Response = response
			now := time.Now()
			r.CompletedAt = &now
		}
	}
	return nil
}

func (m *mockRecordRepo) Resolve(id, status, response string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.Active() {
			r.Status = status
			r.Response = response
			now := time.Now()
			r.CompletedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRecordRepo) FindStale(olderThan time.Time) ([]*model.AutomationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.AutomationRecord{}
	for _, r := range m.records {
		if r.Active() && r.CreatedAt.Before(olderThan) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRecordRepo) activeCount(campaignID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.records {
		if r.CampaignID == campaignID && r.Active() {
			count++
		}
	}
	return count
}

func (m *mockRecordRepo) totalCount(campaignID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.records {
		if r.CampaignID == campaignID {
			count++
		}
	}
	return count
}

var _ repository.AutomationRecordRepositoryInterface = (*mockRecordRepo)(nil)

type mockIntegrationRepo struct {
	mu           sync.Mutex
	integrations map[string]*model.Integration // keyed by tenantID+"/"+provider
}

func newMockIntegrationRepo() *mockIntegrationRepo {
	return &mockIntegrationRepo{integrations: map[string]*model.Integration{}}
}

func (m *mockIntegrationRepo) connect(tenantID, provider string, config model.IntegrationConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.integrations[tenantID+"/"+provider] = &model.Integration{
		ID:       provider + "-" + tenantID,
		TenantID: tenantID,
		Provider: provider,
		Config:   config,
		Status:   model.IntegrationStatusConnected,
	}
}

func (m *mockIntegrationRepo) Upsert(i *model.Integration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *i
	m.integrations[i.TenantID+"/"+i.Provider] = &cp
	return nil
}

func (m *mockIntegrationRepo) GetByProvider(tenantID, provider string) (*model.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.integrations[tenantID+"/"+provider]
	if !ok {
		return nil, appErrors.NewNotFound("integration", provider)
	}
	cp := *i
	return &cp, nil
}

func (m *mockIntegrationRepo) ListByTenant(tenantID string) ([]model.Integration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Integration{}
	for key, i := range m.integrations {
		if strings.HasPrefix(key, tenantID+"/") {
			out = append(out, *i)
		}
	}
	return out, nil
}

func (m *mockIntegrationRepo) UpdateStatus(tenantID, provider, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.integrations[tenantID+"/"+provider]
	if !ok {
		return appErrors.NewNotFound("integration", provider)
	}
	i.Status = status
	return nil
}

var _ repository.IntegrationRepositoryInterface = (*mockIntegrationRepo)(nil)

// mockSender records webhook sends and fails when err is set.
type mockSender struct {
	mu    sync.Mutex
	calls []string // URLs sent to
	err   error
}

func (m *mockSender) Send(url string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, url)
	return nil
}

func (m *mockSender) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func strPtr(s string) *string { return &s }
