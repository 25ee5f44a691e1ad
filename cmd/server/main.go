// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/unclebandit/adpilot-backend/internal/config"
	"github.com/unclebandit/adpilot-backend/internal/controller"
	"github.com/unclebandit/adpilot-backend/internal/db"
	"github.com/unclebandit/adpilot-backend/internal/handler"
	"github.com/unclebandit/adpilot-backend/internal/middleware"
	"github.com/unclebandit/adpilot-backend/internal/queue"
	"github.com/unclebandit/adpilot-backend/internal/repository"
	"github.com/unclebandit/adpilot-backend/internal/service"
	"github.com/unclebandit/adpilot-backend/internal/webhook"
)

func main() {
	cfg := config.LoadConfig()

	// Init DB
	db.Init()
	q := queue.NewInMemoryQueue()
	queue.StartStatusEventSubscriber(q)

	validate := validator.New()

	tenantRepo := &repository.TenantRepository{DB: db.DB}
	resourceRepo := &repository.ResourceRepository{DB: db.DB}
	audienceRepo := &repository.AudienceRepository{DB: db.DB}
	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	recordRepo := &repository.AutomationRecordRepository{DB: db.DB}
	integrationRepo := &repository.IntegrationRepository{DB: db.DB}

	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		Queue:        q,
	}
	automationService := &service.AutomationService{
		CampaignRepo:      campaignRepo,
		RecordRepo:        recordRepo,
		IntegrationRepo:   integrationRepo,
		Sender:            webhook.NewClient(cfg.WebhookRequestTimeout, cfg.AutomationSecret),
		Queue:             q,
		DefaultWebhookURL: cfg.AutomationWebhookURL,
	}

	campaignController := &controller.CampaignController{
		CampaignService:   campaignService,
		AutomationService: automationService,
		Validate:          validate,
	}
	automationController := &controller.AutomationController{
		AutomationService: automationService,
		Validate:          validate,
		Secret:            cfg.AutomationSecret,
	}

	tenantHandler := &handler.TenantHandler{Repo: tenantRepo}
	resourceHandler := &handler.ResourceHandler{
		Repo:         resourceRepo,
		CampaignRepo: campaignRepo,
		Validate:     validate,
	}
	audienceHandler := &handler.AudienceHandler{Repo: audienceRepo, Validate: validate}
	integrationHandler := &handler.IntegrationHandler{Repo: integrationRepo, Validate: validate}

	r := chi.NewRouter()

	// Signup
	r.Post("/tenants", tenantHandler.CreateTenant)
	r.Get("/tenants/{id}", tenantHandler.GetTenant)

	// Inbound automation callback (not tenant-scoped; the payload names
	// its tenant and resolve matches it against the record)
	r.Post("/automation/callback", automationController.Callback)

	// Tenant-scoped API
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant)

		// Campaign routes
		r.Post("/campaigns", campaignController.CreateCampaign)
		r.Get("/campaigns", campaignController.ListCampaigns)
		r.Get("/campaigns/{id}", campaignController.GetCampaign)
		r.Put("/campaigns/{id}", campaignController.UpdateCampaign)
		r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)
		r.Post("/campaigns/{id}/submit", campaignController.SubmitCampaign)
		r.Post("/campaigns/{id}/pause", campaignController.PauseCampaign)
		r.Post("/campaigns/{id}/resume", campaignController.ResumeCampaign)
		r.Post("/campaigns/{id}/complete", campaignController.CompleteCampaign)
		r.Get("/campaigns/{id}/automation-records", campaignController.ListAutomationRecords)

		// Resource routes
		r.Post("/resources", resourceHandler.CreateResource)
		r.Get("/resources", resourceHandler.ListResources)
		r.Get("/resources/{id}", resourceHandler.GetResource)
		r.Put("/resources/{id}", resourceHandler.UpdateResource)
		r.Delete("/resources/{id}", resourceHandler.DeleteResource)

		// Audience routes
		r.Post("/audiences", audienceHandler.CreateAudience)
		r.Get("/audiences", audienceHandler.ListAudiences)
		r.Get("/audiences/{id}", audienceHandler.GetAudience)
		r.Put("/audiences/{id}", audienceHandler.UpdateAudience)
		r.Delete("/audiences/{id}", audienceHandler.DeleteAudience)

		// Integration routes
		r.Post("/integrations", integrationHandler.UpsertIntegration)
		r.Get("/integrations", integrationHandler.ListIntegrations)
		r.Get("/integrations/{provider}", integrationHandler.GetIntegration)
		r.Put("/integrations/{provider}/status", integrationHandler.UpdateIntegrationStatus)
	})

	log.Println("🚀 Server running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
