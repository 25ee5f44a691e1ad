package main

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/streadway/amqp"

	"github.com/unclebandit/adpilot-backend/internal/config"
	"github.com/unclebandit/adpilot-backend/internal/db"
	appErrors "github.com/unclebandit/adpilot-backend/internal/errors"
	"github.com/unclebandit/adpilot-backend/internal/queue"
	"github.com/unclebandit/adpilot-backend/internal/repository"
	"github.com/unclebandit/adpilot-backend/internal/service"
	"github.com/unclebandit/adpilot-backend/internal/webhook"
)

// The worker consumes automation callbacks delivered over RabbitMQ (the
// engine's alternative to the HTTP callback endpoint) and runs the
// reconciliation pass that times out unanswered dispatches.
func main() {
	cfg := config.LoadConfig()

	// Connect to DB
	db.Init()

	q := queue.NewInMemoryQueue()
	queue.StartStatusEventSubscriber(q)

	campaignRepo := &repository.CampaignRepository{DB: db.DB}
	recordRepo := &repository.AutomationRecordRepository{DB: db.DB}
	integrationRepo := &repository.IntegrationRepository{DB: db.DB}

	automationService := &service.AutomationService{
		CampaignRepo:      campaignRepo,
		RecordRepo:        recordRepo,
		IntegrationRepo:   integrationRepo,
		Sender:            webhook.NewClient(cfg.WebhookRequestTimeout, cfg.AutomationSecret),
		Queue:             q,
		DefaultWebhookURL: cfg.AutomationWebhookURL,
	}

	// Reconciliation loop
	reconciler := service.NewReconciler(automationService, cfg.ReconcileInterval, cfg.AutomationTimeout)
	stop := make(chan struct{})
	go reconciler.Start(stop)

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	declared, err := ch.QueueDeclare(
		cfg.CallbackQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		declared.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var cb service.CallbackPayload
			if err := json.Unmarshal(d.Body, &cb); err != nil {
				log.Println("Invalid callback body:", err)
				d.Ack(false)
				continue
			}

			if err := processCallback(cb, automationService); err != nil {
				log.Println("Failed to process callback:", err)
				// Retry logic: requeue up to 3 times
				var retryCount int32
				if d.Headers["x-retry-count"] != nil {
					retryCount, _ = d.Headers["x-retry-count"].(int32)
				}
				if retryCount < 3 {
					d.Nack(false, true) // requeue
					continue
				}
			}

			d.Ack(false)
		}
	}()

	log.Println("Worker running, waiting for callbacks...")
	<-forever
}

// processCallback drives the same resolve path as the HTTP endpoint. Stale
// callbacks are logged and dropped rather than requeued: retrying them can
// never succeed.
func processCallback(cb service.CallbackPayload, svc *service.AutomationService) error {
	rec, err := svc.Resolve(cb)
	if err != nil {
		var stale *appErrors.StaleCallbackError
		if errors.As(err, &stale) {
			log.Println("Ignoring stale callback for campaign", cb.CampaignID)
			return nil // no retry
		}
		return err
	}

	log.Printf("Resolved automation record %s -> %s\n", rec.ID, rec.Status)
	return nil
}
