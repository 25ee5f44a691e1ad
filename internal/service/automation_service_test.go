package service_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/model"
	"github.com/unclebandit/adpilot-backend/internal/service"
)

const testTenant = "tenant-1"

func submittableCampaign(id string) *model.Campaign {
	return &model.Campaign{
		ID:        id,
		TenantID:  testTenant,
		Name:      "Spring Sale",
		Objective: model.ObjectiveReach,
		Status:    model.StatusDraft,
		AccountID: strPtr("res-account"),
		PageID:    strPtr("res-page"),
		AdSets: model.AdSetList{
			{AudienceID: "aud-1", Budget: 150},
		},
		Creatives: model.CreativeList{
			{Title: "Big savings", Text: "Everything must go"},
		},
	}
}

func newAutomationFixture() (*service.AutomationService, *mockCampaignRepo, *mockRecordRepo, *mockSender) {
	campaigns := newMockCampaignRepo()
	records := newMockRecordRepo(campaigns)
	integrations := newMockIntegrationRepo()
	integrations.connect(testTenant, model.ProviderMetaAds, model.IntegrationConfig{
		"webhook_url": "https://n8n.example.com/webhook/launch",
	})
	sender := &mockSender{}

	svc := &service.AutomationService{
		CampaignRepo:    campaigns,
		RecordRepo:      records,
		IntegrationRepo: integrations,
		Sender:          sender,
	}
	return svc, campaigns, records, sender
}

func TestDispatchSubmitsDraftCampaign(t *testing.T) {
	svc, campaigns, records, sender := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))

	rec, err := svc.Dispatch(testTenant, "camp-1")
	if err != nil {
		t.Fatalf("expected dispatch to succeed, got %v", err)
	}
	if rec.Status != model.AutomationStatusSent {
		t.Errorf("expected record status sent, got %s", rec.Status)
	}
	if rec.WebhookURL != "https://n8n.example.com/webhook/launch" {
		t.Errorf("expected integration webhook URL, got %s", rec.WebhookURL)
	}
	if len(rec.Payload) == 0 {
		t.Error("expected a payload snapshot on the record")
	}
	if sender.sendCount() != 1 {
		t.Errorf("expected 1 webhook send, got %d", sender.sendCount())
	}
	if got := campaigns.status(testTenant, "camp-1"); got != model.StatusPending {
		t.Errorf("expected campaign pending after dispatch, got %s", got)
	}
	if records.activeCount("camp-1") != 1 {
		t.Errorf("expected exactly one active record, got %d", records.activeCount("camp-1"))
	}
}

func TestDispatchFallsBackToDefaultWebhookURL(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	svc.IntegrationRepo = newMockIntegrationRepo()
	svc.IntegrationRepo.(*mockIntegrationRepo).connect(testTenant, model.ProviderMetaAds, nil)
	svc.DefaultWebhookURL = "https://n8n.example.com/webhook/default"
	campaigns.add(submittableCampaign("camp-1"))

	rec, err := svc.Dispatch(testTenant, "camp-1")
	if err != nil {
		t.Fatalf("expected dispatch to succeed, got %v", err)
	}
	if rec.WebhookURL != "https://n8n.example.com/webhook/default" {
		t.Errorf("expected default webhook URL, got %s", rec.WebhookURL)
	}
}

func TestDispatchRejectsIncompleteCampaign(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *model.Campaign)
	}{
		{"no ad sets", func(c *model.Campaign) { c.AdSets = nil }},
		{"no creatives", func(c *model.Campaign) { c.Creatives = nil }},
		{"no account", func(c *model.Campaign) { c.AccountID = nil }},
		{"no page", func(c *model.Campaign) { c.PageID = nil }},
		{"lead without form", func(c *model.Campaign) { c.Objective = model.ObjectiveLead }},
		{"whatsapp without number", func(c *model.Campaign) { c.Objective = model.ObjectiveWhatsapp }},
		{"traffic without url", func(c *model.Campaign) { c.Objective = model.ObjectiveTraffic }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, campaigns, records, sender := newAutomationFixture()
			c := submittableCampaign("camp-1")
			tt.mutate(c)
			campaigns.add(c)

			_, err := svc.Dispatch(testTenant, "camp-1")
			var pf *appErrors.PreconditionFailedError
			if !errors.As(err, &pf) {
				t.Fatalf("expected PreconditionFailedError, got %v", err)
			}
			if got := campaigns.status(testTenant, "camp-1"); got != model.StatusDraft {
				t.Errorf("campaign should stay draft on a failed guard, got %s", got)
			}
			if records.totalCount("camp-1") != 0 {
				t.Errorf("no record should be created on a failed guard, got %d", records.totalCount("camp-1"))
			}
			if sender.sendCount() != 0 {
				t.Errorf("nothing should be sent on a failed guard, got %d sends", sender.sendCount())
			}
		})
	}
}

func TestDispatchRequiresConnectedMetaAds(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	svc.IntegrationRepo = newMockIntegrationRepo() // no integrations at all
	campaigns.add(submittableCampaign("camp-1"))

	_, err := svc.Dispatch(testTenant, "camp-1")
	var pf *appErrors.PreconditionFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PreconditionFailedError when meta_ads is missing, got %v", err)
	}
}

func TestDispatchRequiresDriveForAssetFolders(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	c := submittableCampaign("camp-1")
	c.Creatives = model.CreativeList{
		{Title: "Video ad", Text: "Watch this", AssetFolderRef: "drive-folder-9"},
	}
	campaigns.add(c)

	_, err := svc.Dispatch(testTenant, "camp-1")
	var pf *appErrors.PreconditionFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PreconditionFailedError when google_drive is missing, got %v", err)
	}

	svc.IntegrationRepo.(*mockIntegrationRepo).connect(testTenant, model.ProviderGoogleDrive, nil)
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("expected dispatch to succeed once google_drive is connected, got %v", err)
	}
}

func TestDispatchConflictsWhileInFlight(t *testing.T) {
	svc, campaigns, records, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))

	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}

	_, err := svc.Dispatch(testTenant, "camp-1")
	var conflict *appErrors.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError on second submit, got %v", err)
	}
	if records.totalCount("camp-1") != 1 {
		t.Errorf("expected a single record after the conflicting submit, got %d", records.totalCount("camp-1"))
	}
}

func TestDispatchTransportFailureAllowsRetry(t *testing.T) {
	svc, campaigns, records, sender := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))
	sender.err = errors.New("connection refused")

	rec, err := svc.Dispatch(testTenant, "camp-1")
	var tf *appErrors.TransportFailureError
	if !errors.As(err, &tf) {
		t.Fatalf("expected TransportFailureError, got %v", err)
	}
	if rec == nil || rec.Status != model.AutomationStatusFailed {
		t.Fatalf("expected a failed record back, got %+v", rec)
	}
	if got := campaigns.status(testTenant, "camp-1"); got != model.StatusDraft {
		t.Errorf("campaign must stay draft on transport failure, got %s", got)
	}

	// The failed record frees the slot, so a retry goes through.
	sender.err = nil
	rec2, err := svc.Dispatch(testTenant, "camp-1")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if rec2.Status != model.AutomationStatusSent {
		t.Errorf("expected retried record sent, got %s", rec2.Status)
	}
	if records.totalCount("camp-1") != 2 {
		t.Errorf("expected both attempts in the audit trail, got %d", records.totalCount("camp-1"))
	}
}

func TestDispatchRejectsActiveCampaign(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	c := submittableCampaign("camp-1")
	c.Status = model.StatusActive
	campaigns.add(c)

	_, err := svc.Dispatch(testTenant, "camp-1")
	var pf *appErrors.PreconditionFailedError
	if !errors.As(err, &pf) {
		t.Fatalf("expected PreconditionFailedError for an active campaign, got %v", err)
	}
}

func TestDispatchAllowsResubmitAfterError(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	c := submittableCampaign("camp-1")
	c.Status = model.StatusError
	c.StatusDetail = "rejected by automation"
	campaigns.add(c)

	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("expected errored campaign to be submittable again, got %v", err)
	}
	if got := campaigns.status(testTenant, "camp-1"); got != model.StatusPending {
		t.Errorf("expected campaign pending again, got %s", got)
	}
}

func TestDispatchIsTenantScoped(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))

	_, err := svc.Dispatch("other-tenant", "camp-1")
	if !appErrors.IsNotFound(err) {
		t.Fatalf("expected NotFound for a foreign tenant, got %v", err)
	}
}

func TestConcurrentDispatchKeepsOneActiveRecord(t *testing.T) {
	svc, campaigns, records, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Dispatch(testTenant, "camp-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var conflict *appErrors.ConflictError
		var pf *appErrors.PreconditionFailedError
		if !errors.As(err, &conflict) && !errors.As(err, &pf) {
			t.Errorf("unexpected error from concurrent dispatch: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one dispatch to win, got %d", succeeded)
	}
	if records.activeCount("camp-1") != 1 {
		t.Errorf("expected one active record after the race, got %d", records.activeCount("camp-1"))
	}
}

func TestResolveSuccessActivatesCampaign(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	rec, err := svc.Resolve(service.CallbackPayload{
		CampaignID: "camp-1",
		TenantID:   testTenant,
		Outcome:    "success",
		Detail:     "meta campaign id 4471",
	})
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	if rec.Status != model.AutomationStatusSuccess {
		t.Errorf("expected record success, got %s", rec.Status)
	}
	if rec.CompletedAt == nil {
		t.Error("expected completed_at to be set")
	}
	if got := campaigns.status(testTenant, "camp-1"); got != model.StatusActive {
		t.Errorf("expected campaign active, got %s", got)
	}
}

func TestResolveErrorOutcome(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	rec, err := svc.Resolve(service.CallbackPayload{
		CampaignID: "camp-1",
		TenantID:   testTenant,
		Outcome:    "error",
		Detail:     "ad account disabled",
	})
	if err != nil {
		t.Fatalf("expected resolve to succeed, got %v", err)
	}
	if rec.Status != model.AutomationStatusFailed {
		t.Errorf("expected record failed, got %s", rec.Status)
	}

	c, err := campaigns.GetByID(testTenant, "camp-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if c.Status != model.StatusError {
		t.Errorf("expected campaign error, got %s", c.Status)
	}
	if c.StatusDetail != "ad account disabled" {
		t.Errorf("expected status detail from the callback, got %q", c.StatusDetail)
	}
}

func TestResolveDuplicateCallbackIsNoOp(t *testing.T) {
	svc, campaigns, records, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	cb := service.CallbackPayload{CampaignID: "camp-1", TenantID: testTenant, Outcome: "success"}
	first, err := svc.Resolve(cb)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	second, err := svc.Resolve(cb)
	if err != nil {
		t.Fatalf("duplicate callback must not error, got %v", err)
	}
	if second.ID != first.ID || second.Status != model.AutomationStatusSuccess {
		t.Errorf("expected the prior resolution back, got %+v", second)
	}
	if got := campaigns.status(testTenant, "camp-1"); got != model.StatusActive {
		t.Errorf("duplicate callback must not move the campaign, got %s", got)
	}
	if records.totalCount("camp-1") != 1 {
		t.Errorf("duplicate callback must not create records, got %d", records.totalCount("camp-1"))
	}
}

func TestResolveWithoutRecordIsStale(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))

	_, err := svc.Resolve(service.CallbackPayload{
		CampaignID: "camp-1",
		TenantID:   testTenant,
		Outcome:    "success",
	})
	var stale *appErrors.StaleCallbackError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleCallbackError, got %v", err)
	}
	if got := campaigns.status(testTenant, "camp-1"); got != model.StatusDraft {
		t.Errorf("stale callback must not move the campaign, got %s", got)
	}
}

func TestReconcileStaleTimesOutPendingCampaign(t *testing.T) {
	svc, campaigns, records, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	// Age the record past the deadline.
	records.mu.Lock()
	records.records[0].CreatedAt = time.Now().Add(-time.Hour)
	records.mu.Unlock()

	n, err := svc.ReconcileStale(15 * time.Minute)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reconciled record, got %d", n)
	}

	latest, err := records.GetLatest(testTenant, "camp-1")
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.Status != model.AutomationStatusFailed || latest.Response != "timeout" {
		t.Errorf("expected record failed with timeout response, got %s %q", latest.Status, latest.Response)
	}

	c, err := campaigns.GetByID(testTenant, "camp-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if c.Status != model.StatusError || c.StatusDetail != "timeout" {
		t.Errorf("expected campaign error/timeout, got %s %q", c.Status, c.StatusDetail)
	}

	// A timed-out campaign is submittable again.
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("expected resubmit after timeout to succeed, got %v", err)
	}
}

func TestReconcileStaleIgnoresFreshRecords(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	n, err := svc.ReconcileStale(15 * time.Minute)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no reconciled records, got %d", n)
	}
	if got := campaigns.status(testTenant, "camp-1"); got != model.StatusPending {
		t.Errorf("fresh pending campaign must not be touched, got %s", got)
	}
}

func TestListRecordsRequiresCampaign(t *testing.T) {
	svc, campaigns, _, _ := newAutomationFixture()
	campaigns.add(submittableCampaign("camp-1"))
	if _, err := svc.Dispatch(testTenant, "camp-1"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	recs, err := svc.ListRecords(testTenant, "camp-1")
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected 1 record, got %d", len(recs))
	}

	if _, err := svc.ListRecords(testTenant, "no-such"); !appErrors.IsNotFound(err) {
		t.Errorf("expected NotFound for a missing campaign, got %v", err)
	}
}
